package domain

import "github.com/google/uuid"

type SendDirectCommand struct {
	SenderID     string `validate:"required"`
	RecipientID  string `validate:"required"`
	Content      string `validate:"required"`
	OriginConnID ConnectionID
}

type SendGroupCommand struct {
	SenderID     string    `validate:"required"`
	GroupID      uuid.UUID `validate:"required"`
	Content      string    `validate:"required"`
	OriginConnID ConnectionID
}

type CreateGroupCommand struct {
	CreatorID   string   `validate:"required"`
	Name        string   `validate:"required,max=100"`
	Description string   `validate:"max=500"`
	MemberIDs   []string `validate:"dive,required"`
}
