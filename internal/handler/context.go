package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const ContextClaims = "claims"

func SetClaims(c *gin.Context, claims *model.TokenClaims) {
	c.Set(ContextClaims, claims)
}

// Claims returns the authenticated caller, if any.
func Claims(c *gin.Context) (*model.TokenClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*model.TokenClaims)
	return claims, ok
}
