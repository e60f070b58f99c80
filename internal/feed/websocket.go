package feed

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSource reads frames from a WebSocket endpoint, one JSON payload per
// text message.
type WSSource struct {
	url    string
	token  string
	dialer *websocket.Dialer
}

// NewWSSource creates a WebSocket source for url.
func NewWSSource(url string, opts Options) *WSSource {
	return &WSSource{
		url:   url,
		token: opts.Token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.DialTimeout,
		},
	}
}

// Open performs the handshake. The connection is closed when ctx is done.
func (s *WSSource) Open(ctx context.Context) (Stream, error) {
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}
	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", s.url, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", s.url, err)
	}
	st := &wsStream{conn: conn}
	st.stop = context.AfterFunc(ctx, func() { st.Close() })
	return st, nil
}

type wsStream struct {
	conn      *websocket.Conn
	stop      func() bool
	closeOnce sync.Once
}

func (s *wsStream) Recv() ([]byte, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrStreamClosed
			}
			return nil, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		err = s.conn.Close()
	})
	return err
}
