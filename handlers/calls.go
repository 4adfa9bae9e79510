package handlers

import (
	"net/http"

	"therapy/models"
	"therapy/utils"

	"github.com/gin-gonic/gin"
)

func (hb *HandlerBundle) RequestCallHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	s, err := hb.Negotiator.Request(c.Request.Context(), a, c.Param("id"))
	respond(c, s, err)
}

func (hb *HandlerBundle) RespondToCallHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.CallResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := hb.Negotiator.Respond(c.Request.Context(), a, c.Param("id"), req.Decision)
	respond(c, s, err)
}

func (hb *HandlerBundle) ActivateCallHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	s, err := hb.Negotiator.Activate(c.Request.Context(), a, c.Param("id"))
	respond(c, s, err)
}

func (hb *HandlerBundle) EndCallHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	s, err := hb.Negotiator.End(c.Request.Context(), a, c.Param("id"))
	respond(c, s, err)
}

// CallTokenHandler returns a participant token for joining call rooms.
func (hb *HandlerBundle) CallTokenHandler(c *gin.Context) {
	if _, ok := actor(c); !ok {
		return
	}
	token, expiresAt, err := hb.Tokens.Token()
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CallTokenResponse{Token: token, ExpiresAt: expiresAt})
}
