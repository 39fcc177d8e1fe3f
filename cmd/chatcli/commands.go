package main

import (
	"errors"
	"strings"
)

var errUsage = errors.New(`usage:
  @user text          direct message
  #group-id text      group message
  /typing user        typing indicator
  /history user       conversation with user
  /ghistory group-id  group conversation
  /unread             unread counts
  /search query       search (--with user --lang en --limit 5)
  /groups             my groups
  /newgroup name user...
  /follow user | /unfollow user
  /online user...`)

// parseLine turns an input line into a request method and its params.
func parseLine(line string) (string, any, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, errUsage
	}

	switch line[0] {
	case '@':
		to, text, ok := strings.Cut(line[1:], " ")
		if !ok || to == "" {
			return "", nil, errUsage
		}
		return "message.send", map[string]string{"to": to, "content": text}, nil
	case '#':
		groupID, text, ok := strings.Cut(line[1:], " ")
		if !ok || groupID == "" {
			return "", nil, errUsage
		}
		return "group.send", map[string]string{"group_id": groupID, "content": text}, nil
	case '/':
	default:
		return "", nil, errUsage
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return "", nil, errUsage
	}
	command, args := fields[0], fields[1:]
	switch {
	case command == "unread" && len(args) == 0:
		return "message.unread", nil, nil
	case command == "groups" && len(args) == 0:
		return "group.list", nil, nil
	case command == "typing" && len(args) == 1:
		return "typing.start", map[string]string{"to": args[0]}, nil
	case command == "history" && len(args) == 1:
		return "message.history", map[string]string{"peer_id": args[0]}, nil
	case command == "ghistory" && len(args) == 1:
		return "group.history", map[string]string{"group_id": args[0]}, nil
	case command == "search" && len(args) > 0:
		return "message.search", map[string]string{"query": strings.Join(args, " ")}, nil
	case command == "newgroup" && len(args) > 0:
		return "group.create", map[string]any{"name": args[0], "member_ids": args[1:]}, nil
	case command == "follow" && len(args) == 1:
		return "follow.add", map[string]string{"user_id": args[0]}, nil
	case command == "unfollow" && len(args) == 1:
		return "follow.remove", map[string]string{"user_id": args[0]}, nil
	case command == "online" && len(args) > 0:
		return "presence.query", map[string][]string{"user_ids": args}, nil
	default:
		return "", nil, errUsage
	}
}
