package service

import (
	"github.com/avvvet/darts-services/internal/comm"
	"github.com/avvvet/darts-services/internal/x01"
)

// Response is what an action sends back to the connection that issued it.
type Response struct {
	Action   string
	Message  any
	Metadata *x01.Metadata
}

func (r Response) Envelope() ([]byte, error) {
	return comm.NewEnvelope(r.Action, r.Message, r.Metadata)
}

// ErrorEnvelope renders err for the issuing connection.
func ErrorEnvelope(action string, err error) []byte {
	payload, mErr := comm.NewEnvelope(comm.ActionError, comm.ErrorMessage{
		Code:   x01.StatusCode(err),
		Error:  err.Error(),
		Action: action,
	}, nil)
	if mErr != nil {
		return []byte(`{"action":"error","message":{"code":500,"error":"internal error"}}`)
	}
	return payload
}
