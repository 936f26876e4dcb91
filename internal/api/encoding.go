// encoding.go - Response encoding with msgpack content negotiation
package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the content type of msgpack responses.
const MIMEApplicationMsgpack = "application/msgpack"

// wantsMsgpack reports whether the client asked for msgpack.
func wantsMsgpack(c echo.Context) bool {
	for _, part := range strings.Split(c.Request().Header.Get(echo.HeaderAccept), ",") {
		mt := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if mt == MIMEApplicationMsgpack || mt == "application/x-msgpack" {
			return true
		}
	}
	return false
}

// encodeMsgpack encodes v using the json struct tags so both encodings share
// field names.
func encodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// respond writes v as msgpack when requested and as JSON otherwise.
func respond(c echo.Context, status int, v interface{}) error {
	c.Response().Header().Add(echo.HeaderVary, echo.HeaderAccept)
	if !wantsMsgpack(c) {
		return c.JSON(status, v)
	}

	data, err := encodeMsgpack(v)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, MIMEApplicationMsgpack, data)
}

// respondOK is respond with 200.
func respondOK(c echo.Context, v interface{}) error {
	return respond(c, http.StatusOK, v)
}
