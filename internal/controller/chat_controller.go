package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ChatController 公共聊天室：REST 发消息 + 轮询拉取，websocket 推送
type ChatController struct {
	RoomService *service.ChatRoomService
	Hub         *service.RoomHub
}

func NewChatController(roomService *service.ChatRoomService, hub *service.RoomHub) *ChatController {
	return &ChatController{
		RoomService: roomService,
		Hub:         hub,
	}
}

// HandleWS godoc
// @Summary 聊天室 WebSocket
// @Description 建立连接后接收房间内的新消息、正在输入和在线状态推送
// @Tags 聊天室
// @Security ApiKeyAuth
// @Param   id path string true "房间ID"
// @Param   token query string true "JWT Token"
// @Success 101 {string} string "Switching Protocols"
// @Failure 403 {object} util.ErrorResponse
// @Router /api/chat-rooms/{id}/ws [get]
func (ctrl *ChatController) HandleWS(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	room, _, err := ctrl.RoomService.Authorize(c.Request.Context(), me.UserID, c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	service.ServeWs(ctrl.Hub, c.Writer, c.Request, me.UserID, room.ID.Hex())
}

// CreateRoom godoc
// @Summary 创建聊天室
// @Tags 聊天室
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateRoomRequest true "房间信息"
// @Success 201 {object} util.Response{data=model.ChatRoom}
// @Router /api/chat-rooms [post]
func (ctrl *ChatController) CreateRoom(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	var req service.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BindError(c, err)
		return
	}
	room, err := ctrl.RoomService.CreateRoom(c.Request.Context(), me.UserID, req)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Created(c, room)
}

// ListRooms godoc
// @Summary 聊天室列表
// @Tags 聊天室
// @Produce  json
// @Security ApiKeyAuth
// @Param   batch query string false "年级"
// @Param   section query string false "班级"
// @Success 200 {object} util.Response{data=[]model.ChatRoom}
// @Router /api/chat-rooms [get]
func (ctrl *ChatController) ListRooms(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	var q service.RoomListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		util.BindError(c, err)
		return
	}
	rooms, err := ctrl.RoomService.ListRooms(c.Request.Context(), me, q)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, rooms)
}

// PostMessage godoc
// @Summary 发送聊天室消息
// @Tags 聊天室
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "房间ID"
// @Param   body body service.PostRoomMessageRequest true "消息内容"
// @Success 201 {object} util.Response{data=model.ChatRoomMessage}
// @Failure 403 {object} util.ErrorResponse
// @Router /api/chat-rooms/{id}/messages [post]
func (ctrl *ChatController) PostMessage(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	var req service.PostRoomMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BindError(c, err)
		return
	}
	msg, err := ctrl.RoomService.PostMessage(c.Request.Context(), me.UserID, c.Param("id"), req)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Created(c, msg)
}

// Messages godoc
// @Summary 拉取聊天室消息
// @Description 客户端按 pollIntervalSeconds 轮询，下一次用返回的 serverTime 作为 since
// @Tags 聊天室
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "房间ID"
// @Param   since query string false "RFC3339 时间"
// @Param   limit query int false "条数" default(50)
// @Success 200 {object} util.Response{data=service.RoomMessages}
// @Router /api/chat-rooms/{id}/messages [get]
func (ctrl *ChatController) Messages(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	var q service.RoomMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		util.BindError(c, err)
		return
	}
	res, err := ctrl.RoomService.Messages(c.Request.Context(), me.UserID, c.Param("id"), q)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, res)
}

// Online godoc
// @Summary 聊天室在线用户
// @Tags 聊天室
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "房间ID"
// @Success 200 {object} util.Response{data=[]uint}
// @Router /api/chat-rooms/{id}/online [get]
func (ctrl *ChatController) Online(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	room, _, err := ctrl.RoomService.Authorize(c.Request.Context(), me.UserID, c.Param("id"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	ids, err := ctrl.Hub.Online(c.Request.Context(), room.ID.Hex())
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, ids)
}
