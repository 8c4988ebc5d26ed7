package server

import (
	"github.com/labstack/echo/v4"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// jsonSerializer encodes responses with segmentio/encoding. Request bodies go
// through the binder, which decodes strictly on its own.
type jsonSerializer struct{}

var _ echo.JSONSerializer = (*jsonSerializer)(nil)

func (*jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return errors.WithStack(enc.Encode(i))
}

func (*jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return errcodes.MalformedPayload()
	}
	return nil
}
