package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marko-code-lab/noiddea-demo-sub002/bridge"
)

// Bridge handlers answer with the bridge.Result envelope. Failures of the
// call itself are reported in the envelope with status 200; only a body that
// cannot be decoded gets a 400.

type bridgeSQL struct {
	SQL    string            `json:"sql" binding:"required"`
	Params []json.RawMessage `json:"params"`
}

func bindBridge(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, bridge.Fail("invalid request: %v", err))
		return false
	}
	return true
}

func bridgeReply(c *gin.Context, kind string, data interface{}, err error) {
	opts.Metrics.BridgeQuery(kind, err)
	if err != nil {
		opts.Logger.Warn("bridge call failed", zap.String("kind", kind), zap.Error(err))
		c.JSON(http.StatusOK, bridge.Fail("%v", err))
		return
	}
	c.JSON(http.StatusOK, bridge.OK(data))
}

func BridgeQuery(c *gin.Context) {
	var req bridgeSQL
	if !bindBridge(c, &req) {
		return
	}
	rows, err := opts.Bridge.Query(c.Request.Context(), req.SQL, req.Params)
	bridgeReply(c, "query", rows, err)
}

func BridgeExecute(c *gin.Context) {
	var req bridgeSQL
	if !bindBridge(c, &req) {
		return
	}
	res, err := opts.Bridge.Execute(c.Request.Context(), req.SQL, req.Params)
	bridgeReply(c, "execute", res, err)
}

func BridgeExec(c *gin.Context) {
	var req struct {
		SQL string `json:"sql" binding:"required"`
	}
	if !bindBridge(c, &req) {
		return
	}
	bridgeReply(c, "exec", nil, opts.Bridge.Exec(c.Request.Context(), req.SQL))
}

func BridgeTransaction(c *gin.Context) {
	var req struct {
		Queries []bridge.Statement `json:"queries" binding:"required"`
	}
	if !bindBridge(c, &req) {
		return
	}
	results, err := opts.Bridge.Transaction(c.Request.Context(), req.Queries)
	bridgeReply(c, "transaction", results, err)
}

func BridgeDBPath(c *gin.Context) {
	c.JSON(http.StatusOK, bridge.OK(opts.Bridge.DBPath()))
}

func BridgeDBExists(c *gin.Context) {
	c.JSON(http.StatusOK, bridge.OK(opts.Bridge.DBExists()))
}

func BridgeHashPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if !bindBridge(c, &req) {
		return
	}
	res, err := bridge.HashPassword(req.Password)
	bridgeReply(c, "hash_password", res, err)
}

func BridgeVerifyPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
		Hash     string `json:"hash" binding:"required"`
	}
	if !bindBridge(c, &req) {
		return
	}
	res, err := bridge.VerifyPassword(req.Password, req.Hash)
	bridgeReply(c, "verify_password", res, err)
}

func BridgeGenerateToken(c *gin.Context) {
	c.JSON(http.StatusOK, bridge.OK(bridge.GenerateToken(now())))
}

func BridgeVersion(c *gin.Context) {
	c.JSON(http.StatusOK, bridge.OK(opts.Bridge.Version()))
}

func BridgePlatform(c *gin.Context) {
	c.JSON(http.StatusOK, bridge.OK(bridge.Platform()))
}

func BridgeAppPath(c *gin.Context) {
	path, err := opts.Bridge.AppPath(c.Query("name"))
	if err != nil {
		c.JSON(http.StatusOK, bridge.Fail("%v", err))
		return
	}
	c.JSON(http.StatusOK, bridge.OK(path))
}
