package repositories

import (
	"altus-chat/domain"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Values stored in Badger are protobuf wire messages.
// Field numbers below are the on-disk contract: never renumber, only append.
//
//	DirectMessage: 1 id, 2 sender, 3 recipient, 4 content, 5 language,
//	               6 created_at, 7 delivered_at, 8 read_at
//	Group:         1 id, 2 name, 3 description, 4 creator, 5 member (repeated), 6 created_at
//	GroupMessage:  1 id, 2 group_id, 3 sender, 4 content, 5 language,
//	               6 created_at, 7 delivered_to (repeated Receipt), 8 read_by (repeated Receipt)
//	Receipt:       1 user_id, 2 at
//
// Timestamps are unix nanoseconds; an absent field means "not set".

func encodeDirectMessage(m domain.DirectMessage) []byte {
	var b []byte
	b = appendString(b, 1, m.ID.String())
	b = appendString(b, 2, m.SenderID)
	b = appendString(b, 3, m.RecipientID)
	b = appendString(b, 4, m.Content)
	b = appendString(b, 5, m.Language)
	b = appendTime(b, 6, m.CreatedAt)
	if m.DeliveredAt != nil {
		b = appendTime(b, 7, *m.DeliveredAt)
	}
	if m.ReadAt != nil {
		b = appendTime(b, 8, *m.ReadAt)
	}
	return b
}

func decodeDirectMessage(b []byte) (domain.DirectMessage, error) {
	var m domain.DirectMessage
	var rawID string
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(b, &rawID)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(b, &m.SenderID)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(b, &m.RecipientID)
		case num == 4 && typ == protowire.BytesType:
			return consumeString(b, &m.Content)
		case num == 5 && typ == protowire.BytesType:
			return consumeString(b, &m.Language)
		case num == 6 && typ == protowire.VarintType:
			return consumeTime(b, &m.CreatedAt)
		case num == 7 && typ == protowire.VarintType:
			var at time.Time
			n := consumeTime(b, &at)
			m.DeliveredAt = &at
			return n
		case num == 8 && typ == protowire.VarintType:
			var at time.Time
			n := consumeTime(b, &at)
			m.ReadAt = &at
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	if err != nil {
		return domain.DirectMessage{}, err
	}
	if m.ID, err = uuid.Parse(rawID); err != nil {
		return domain.DirectMessage{}, fmt.Errorf("decode direct message id: %w", err)
	}
	return m, nil
}

func encodeGroup(g domain.Group) []byte {
	var b []byte
	b = appendString(b, 1, g.ID.String())
	b = appendString(b, 2, g.Name)
	b = appendString(b, 3, g.Description)
	b = appendString(b, 4, g.CreatorID)
	for _, member := range g.MemberIDs {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendString(b, member)
	}
	b = appendTime(b, 6, g.CreatedAt)
	return b
}

func decodeGroup(b []byte) (domain.Group, error) {
	var g domain.Group
	var rawID string
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(b, &rawID)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(b, &g.Name)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(b, &g.Description)
		case num == 4 && typ == protowire.BytesType:
			return consumeString(b, &g.CreatorID)
		case num == 5 && typ == protowire.BytesType:
			var member string
			n := consumeString(b, &member)
			g.MemberIDs = append(g.MemberIDs, member)
			return n
		case num == 6 && typ == protowire.VarintType:
			return consumeTime(b, &g.CreatedAt)
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	if err != nil {
		return domain.Group{}, err
	}
	if g.ID, err = uuid.Parse(rawID); err != nil {
		return domain.Group{}, fmt.Errorf("decode group id: %w", err)
	}
	return g, nil
}

func encodeGroupMessage(m domain.GroupMessage) []byte {
	var b []byte
	b = appendString(b, 1, m.ID.String())
	b = appendString(b, 2, m.GroupID.String())
	b = appendString(b, 3, m.SenderID)
	b = appendString(b, 4, m.Content)
	b = appendString(b, 5, m.Language)
	b = appendTime(b, 6, m.CreatedAt)
	for _, r := range m.DeliveredTo {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeReceipt(r))
	}
	for _, r := range m.ReadBy {
		b = protowire.AppendTag(b, 8, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeReceipt(r))
	}
	return b
}

func decodeGroupMessage(b []byte) (domain.GroupMessage, error) {
	var m domain.GroupMessage
	var rawID, rawGroupID string
	var receiptErr error
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(b, &rawID)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(b, &rawGroupID)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(b, &m.SenderID)
		case num == 4 && typ == protowire.BytesType:
			return consumeString(b, &m.Content)
		case num == 5 && typ == protowire.BytesType:
			return consumeString(b, &m.Language)
		case num == 6 && typ == protowire.VarintType:
			return consumeTime(b, &m.CreatedAt)
		case (num == 7 || num == 8) && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n
			}
			r, err := decodeReceipt(raw)
			if err != nil {
				receiptErr = err
				return n
			}
			if num == 7 {
				m.DeliveredTo = append(m.DeliveredTo, r)
			} else {
				m.ReadBy = append(m.ReadBy, r)
			}
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	if err != nil {
		return domain.GroupMessage{}, err
	}
	if receiptErr != nil {
		return domain.GroupMessage{}, receiptErr
	}
	if m.ID, err = uuid.Parse(rawID); err != nil {
		return domain.GroupMessage{}, fmt.Errorf("decode group message id: %w", err)
	}
	if m.GroupID, err = uuid.Parse(rawGroupID); err != nil {
		return domain.GroupMessage{}, fmt.Errorf("decode group message group id: %w", err)
	}
	return m, nil
}

func encodeReceipt(r domain.Receipt) []byte {
	var b []byte
	b = appendString(b, 1, r.UserID)
	b = appendTime(b, 2, r.At)
	return b
}

func decodeReceipt(b []byte) (domain.Receipt, error) {
	var r domain.Receipt
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(b, &r.UserID)
		case num == 2 && typ == protowire.VarintType:
			return consumeTime(b, &r.At)
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	return r, err
}

// consumeFields walks every field of a wire message.
// fn returns the number of bytes of the field value it consumed, or a negative protowire error.
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) int) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := fn(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(t.UnixNano()))
}

func consumeString(b []byte, dst *string) int {
	s, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = s
	}
	return n
}

func consumeTime(b []byte, dst *time.Time) int {
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = time.Unix(0, int64(v)).UTC()
	}
	return n
}
