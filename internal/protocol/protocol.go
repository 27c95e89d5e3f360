package protocol

import (
	"encoding/json"
	"fmt"
)

// A command name carried in an envelope.
type Command string

const (
	CmdBuild        Command = "build"
	CmdRun          Command = "run"
	CmdImageImport  Command = "image.import"
	CmdImageDestroy Command = "image.destroy"
	CmdStatus       Command = "status"
	CmdShutdown     Command = "shutdown"

	// Response commands.
	CmdOK    Command = "ok"
	CmdError Command = "error"
)

// The wire envelope: a command name and its JSON payload.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Serializes a command and payload into an envelope.
func Encode(cmd Command, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		raw = data
	}

	data, err := json.Marshal(Envelope{Command: cmd, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// Deserializes an envelope, returning it along with its raw payload for
// command-specific decoding.
func Decode(data []byte) (Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if env.Command == "" {
		return Envelope{}, nil, fmt.Errorf("%w: missing command", ErrDecode)
	}
	return env, env.Payload, nil
}

// Decodes a raw payload into the command's request or result type.
func DecodePayload[T any](raw json.RawMessage) (*T, error) {
	var v T
	if len(raw) == 0 {
		return &v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &v, nil
}
