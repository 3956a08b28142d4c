package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the chat and relationship endpoints on r. Callers
// attach authentication to r beforehand.
func RegisterRoutes(r gin.IRoutes, chats *ChatHandler, relationships *RelationshipHandler) {
	r.GET("/chats", chats.ListChats)
	r.POST("/chats", chats.CreateChat)
	r.GET("/chats/:chat_id", chats.GetChat)
	r.PUT("/chats/:chat_id", chats.RenameChat)
	r.POST("/chats/:chat_id/members", chats.AddMember)
	r.POST("/chats/:chat_id/messages", chats.PostMessage)
	r.PUT("/chats/:chat_id/leave", chats.LeaveChat)
	r.PUT("/chats/:chat_id/unhide", chats.UnhideChat)
	r.PUT("/messages/:message_id", chats.EditMessage)
	r.DELETE("/messages/:message_id", chats.DeleteMessage)

	r.GET("/friendships", relationships.ListFriendships)
	r.POST("/friendships", relationships.CreateFriendship)
	r.PUT("/friendships/:friendship_id", relationships.AcceptFriendship)
	r.DELETE("/friendships/:friendship_id", relationships.DeleteFriendship)
	r.GET("/blocks", relationships.ListBlocks)
	r.POST("/blocks", relationships.CreateBlock)
	r.DELETE("/blocks/:user_id", relationships.DeleteBlock)
}
