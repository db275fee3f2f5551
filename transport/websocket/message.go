package websocket

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rocketscienceinc/tictactoe-wager-backend/internal/entity"
)

// Message is one client/server exchange: an action name plus its payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload carries the match snapshot and request parameters; unused fields
// stay empty on the wire.
type Payload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Games  []*entity.Game `json:"games,omitempty"`
	Cell   *int           `json:"cell,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// frame is a single WebSocket data frame per RFC 6455.
type frame struct {
	fin     bool
	opCode  byte
	payload []byte
}

const (
	opCodeText  byte = 0x1
	opCodeClose byte = 0x8

	// maxPayloadSize bounds the client-declared frame length so a hostile
	// header cannot force an arbitrarily large allocation.
	maxPayloadSize = 1 << 20
)

var errPayloadTooLarge = errors.New("frame payload exceeds limit")

func (that *Server) sendMessage(conn *connection, action string, payload Payload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	responseBytes, err := json.Marshal(Message{
		Action:  action,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	conn.writeMutex.Lock()
	defer conn.writeMutex.Unlock()

	if err = writeFrame(conn.bufrw, frame{fin: true, opCode: opCodeText, payload: responseBytes}); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

func writeFrame(bufrw *bufio.ReadWriter, frameData frame) error {
	length := uint64(len(frameData.payload))

	header := make([]byte, 2, 10)
	header[0] = frameData.opCode
	if frameData.fin {
		header[0] |= 0x80
	}

	switch {
	case length < 126:
		header[1] = byte(length)
	case length < 1<<16:
		header[1] = 126
		header = binary.BigEndian.AppendUint16(header, uint16(length))
	default:
		header[1] = 127
		header = binary.BigEndian.AppendUint64(header, length)
	}

	if _, err := bufrw.Write(append(header, frameData.payload...)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if err := bufrw.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	return nil
}

// readRequest reads one complete client frame and returns its unmasked
// payload. Control close frames surface as io.EOF so the read loop exits.
func readRequest(bufrw *bufio.ReadWriter) ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(bufrw, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	opCode := header[0] & 0x0f
	if opCode == opCodeClose {
		return nil, io.EOF
	}

	masked := header[1]>>7 == 1

	size, err := readPayloadLength(bufrw, header[1]&0x7f)
	if err != nil {
		return nil, err
	}

	if size > maxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", errPayloadTooLarge, size)
	}

	var mask []byte
	if masked {
		mask = make([]byte, 4)
		if _, err = io.ReadFull(bufrw, mask); err != nil {
			return nil, fmt.Errorf("failed to read mask: %w", err)
		}
	}

	payload := make([]byte, size)
	if _, err = io.ReadFull(bufrw, payload); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	if mask != nil {
		for i := range payload {
			payload[i] ^= mask[i%4]
		}
	}

	return payload, nil
}

func readPayloadLength(bufrw *bufio.ReadWriter, lengthByte byte) (uint64, error) {
	switch {
	case lengthByte < 126:
		return uint64(lengthByte), nil
	case lengthByte == 126:
		length := make([]byte, 2)
		if _, err := io.ReadFull(bufrw, length); err != nil {
			return 0, fmt.Errorf("failed to read payload length: %w", err)
		}
		return uint64(binary.BigEndian.Uint16(length)), nil
	default:
		length := make([]byte, 8)
		if _, err := io.ReadFull(bufrw, length); err != nil {
			return 0, fmt.Errorf("failed to read payload length: %w", err)
		}
		return binary.BigEndian.Uint64(length), nil
	}
}
