package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bnema/roland/internal/adapters/transport/ipc"
	"github.com/bnema/roland/internal/application"
)

func replyFor(result application.Result, err error) ipc.Reply {
	reply := ipc.Reply{
		Intent:   string(result.Intent),
		Response: result.Response,
	}
	if result.Action != nil {
		reply.Action = result.Action.String()
	}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}

func writeReply(out io.Writer, reply ipc.Reply, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}

	if reply.Response == "" {
		return nil
	}
	_, err := fmt.Fprintln(out, reply.Response)
	return err
}
