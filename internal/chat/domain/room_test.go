package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectKey(t *testing.T) {
	assert.Equal(t, DirectKey("a", "b"), DirectKey("b", "a"))
	assert.Equal(t, "a:b", DirectKey("b", "a"))
}

func TestResolveDisplayName(t *testing.T) {
	t.Run("direct room shows the other user's name", func(t *testing.T) {
		room := &ChatRoom{
			Type: RoomTypeDirect,
			Participants: []Participant{
				{UserID: "me", UserName: "Me", Active: true},
				{UserID: "you", UserName: "You", Active: true},
			},
		}
		assert.Equal(t, "You", ResolveDisplayName(room, "me"))
		assert.Equal(t, "Me", ResolveDisplayName(room, "you"))
	})

	t.Run("project room shows the project title", func(t *testing.T) {
		room := &ChatRoom{Type: RoomTypeProject, ProjectTitle: "캠퍼스 마켓"}
		assert.Equal(t, "캠퍼스 마켓", ResolveDisplayName(room, "me"))
	})

	t.Run("falls back to the room name then the placeholder", func(t *testing.T) {
		named := &ChatRoom{Type: RoomTypeGroup, Name: "스터디"}
		assert.Equal(t, "스터디", ResolveDisplayName(named, "me"))

		unnamed := &ChatRoom{Type: RoomTypeGroup}
		assert.Equal(t, "이름 없는 채팅방", ResolveDisplayName(unnamed, "me"))
	})

	t.Run("direct room with a deactivated counterpart uses the placeholder", func(t *testing.T) {
		room := &ChatRoom{
			Type: RoomTypeDirect,
			Participants: []Participant{
				{UserID: "me", UserName: "Me", Active: true},
				{UserID: "you", UserName: "You", Active: false},
			},
		}
		assert.Equal(t, "이름 없는 채팅방", ResolveDisplayName(room, "me"))
	})
}

func TestResolveAvatar(t *testing.T) {
	room := &ChatRoom{
		Type: RoomTypeDirect,
		Participants: []Participant{
			{UserID: "me", Active: true},
			{UserID: "you", AvatarURL: "https://cdn/you.png", Active: true},
		},
	}
	assert.Equal(t, "https://cdn/you.png", ResolveAvatar(room, "me"))
	assert.Equal(t, "", ResolveAvatar(&ChatRoom{Type: RoomTypeProject}, "me"))
}
