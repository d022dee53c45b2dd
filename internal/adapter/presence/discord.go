// Package presence delivers rich-presence status over the Discord IPC
// socket. Delivery is best effort: every failure is swallowed after a debug
// log, and a failed connection is retried on the next notification.
package presence

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"tsuki/internal/domain"
)

const (
	opHandshake = 0
	opFrame     = 1

	connectTimeout = 2 * time.Second
)

// Discord implements domain.Presence over the local Discord IPC socket.
type Discord struct {
	appID  string
	logger *slog.Logger
	conn   net.Conn
}

// NewDiscord creates a presence client for the given application id. No
// connection is made until the first notification.
func NewDiscord(appID string, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{appID: appID, logger: logger}
}

// Set publishes the activity. Playing activities carry start/end timestamps
// derived from elapsed and remaining time; paused ones carry none, matching
// how Discord renders a paused state.
func (d *Discord) Set(a domain.Activity) {
	now := time.Now()

	act := activity{
		Details: a.Title,
		State:   a.Episode,
		Assets: &activityAssets{
			LargeImage: a.Image,
			LargeText:  a.Title,
			SmallImage: smallImage(a.Playing),
			SmallText:  smallImage(a.Playing),
		},
	}
	if a.Playing {
		act.Timestamps = &activityTimestamps{
			Start: a.Timestamp(now, -a.Progress),
			End:   a.Timestamp(now, a.Remaining()),
		}
	}

	d.send(&act)
}

// Clear removes the published activity.
func (d *Discord) Clear() {
	d.send(nil)
}

func (d *Discord) send(act *activity) {
	if err := d.trySend(act); err != nil {
		d.logger.Debug("presence update dropped", "error", err)
		d.disconnect()
	}
}

func (d *Discord) trySend(act *activity) error {
	if err := d.connect(); err != nil {
		return err
	}

	payload := frame{
		Cmd:   "SET_ACTIVITY",
		Nonce: uuid.NewString(),
	}
	payload.Args.PID = os.Getpid()
	payload.Args.Activity = act

	return d.write(opFrame, payload)
}

// connect dials the IPC socket and performs the handshake, once.
func (d *Discord) connect() error {
	if d.conn != nil {
		return nil
	}

	conn, err := dialSocket()
	if err != nil {
		return err
	}
	d.conn = conn

	if err := d.write(opHandshake, handshake{V: 1, ClientID: d.appID}); err != nil {
		d.disconnect()
		return err
	}
	// The ready event; its contents don't matter here.
	if _, _, err := d.read(); err != nil {
		d.disconnect()
		return err
	}
	return nil
}

func (d *Discord) disconnect() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// write emits one opcode-framed JSON message: two little-endian uint32s
// (opcode, payload length) followed by the payload.
func (d *Discord) write(opcode uint32, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	buf := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint32(buf[0:4], opcode)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(data)))
	copy(buf[8:], data)

	_, err = d.conn.Write(buf)
	return err
}

func (d *Discord) read() (uint32, []byte, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(d.conn, header); err != nil {
		return 0, nil, err
	}
	opcode := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])

	data := make([]byte, length)
	if _, err := io.ReadFull(d.conn, data); err != nil {
		return 0, nil, err
	}
	return opcode, data, nil
}

// dialSocket probes the well-known IPC socket paths.
func dialSocket() (net.Conn, error) {
	var base []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			base = append(base, dir)
		}
	}
	base = append(base, "/tmp")

	for _, dir := range base {
		for i := 0; i < 10; i++ {
			path := filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i))
			conn, err := net.DialTimeout("unix", path, connectTimeout)
			if err == nil {
				return conn, nil
			}
		}
	}
	return nil, fmt.Errorf("no discord ipc socket found")
}

func smallImage(playing bool) string {
	if playing {
		return "pause"
	}
	return "play"
}

// Wire payloads

type handshake struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

type frame struct {
	Cmd  string `json:"cmd"`
	Args struct {
		PID      int       `json:"pid"`
		Activity *activity `json:"activity"`
	} `json:"args"`
	Nonce string `json:"nonce"`
}

type activity struct {
	Details    string              `json:"details,omitempty"`
	State      string              `json:"state,omitempty"`
	Timestamps *activityTimestamps `json:"timestamps,omitempty"`
	Assets     *activityAssets     `json:"assets,omitempty"`
}

type activityTimestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

type activityAssets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}
