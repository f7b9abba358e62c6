package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/insightops/odag-provisioning-backend/identity"
	"github.com/insightops/odag-provisioning-backend/interfaces"
)

// Protocol constants. The root handle addresses the session itself before
// any application is open; the object type tags the created object as a
// link-navigation object.
const (
	protocolVersion      = "2.0"
	rootHandle           = -1
	navigationObjectType = "odagapplink"
)

// Engine operation names.
const (
	methodOpenDoc      = "OpenDoc"
	methodCreateObject = "CreateObject"
	methodDoSave       = "DoSave"
)

// Driver opens one engine session per navigation registration. It
// implements interfaces.NavigationRegistrar.
type Driver struct {
	cfg   interfaces.PlatformConfig
	creds *identity.Identity
	log   *slog.Logger
}

// NewDriver builds a driver around the identity's TLS material. The
// configured request timeout bounds each session's handshake.
func NewDriver(cfg interfaces.PlatformConfig, creds *identity.Identity, log *slog.Logger) *Driver {
	return &Driver{cfg: cfg, creds: creds, log: log}
}

// request is one outbound protocol frame.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Handle  int    `json:"handle"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// response is one inbound protocol frame. Error and Result are mutually
// exclusive.
type response struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *remoteError    `json:"error"`
}

type remoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// navigationObjectProps is the CreateObject parameter block: the object
// type tag plus the back-reference to the link resource the object
// navigates to.
type navigationObjectProps struct {
	QInfo struct {
		QType string `json:"qType"`
	} `json:"qInfo"`
	ODAGLinkRef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"odagLinkRef"`
}

// session is one live connection with its correlation state. Sessions are
// used by a single caller; the read loop is the only other goroutine
// touching it.
type session struct {
	conn      *websocket.Conn
	log       *slog.Logger
	closeOnce sync.Once

	mu      sync.Mutex
	nextID  int
	pending map[int]chan *response
	err     error
}

// dial opens a connection and starts its read loop. Handshake failures are
// classified: a timeout maps onto ErrConnectionTimeout, everything else is
// reported as-is.
func (d *Driver) dial(ctx context.Context, wsURL string) (*session, error) {
	signed, err := d.creds.SignURL(wsURL)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: d.cfg.RequestTimeout,
		TLSClientConfig:  d.creds.TLSConfig(),
	}
	conn, resp, err := dialer.DialContext(ctx, signed, d.creds.Headers())
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrConnectionTimeout, err)
		}
		return nil, fmt.Errorf("could not open engine session: %w", err)
	}

	s := &session{
		conn:    conn,
		log:     d.log,
		pending: make(map[int]chan *response),
	}
	go s.readLoop()
	return s, nil
}

// readLoop is the single dispatch point for inbound frames. It exits when
// the connection dies or a frame cannot be parsed, delivering the terminal
// error to every in-flight call.
func (s *session) readLoop() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(closeError(err))
			return
		}

		var resp response
		if err := json.Unmarshal(raw, &resp); err != nil {
			s.fail(fmt.Errorf("%w: %v", interfaces.ErrProtocolDecode, err))
			s.abort()
			return
		}
		s.dispatch(&resp)
	}
}

// closeError classifies a read failure. Non-normal closure codes become
// PrematureCloseError; transport failures without a close frame count as
// abnormal closure.
func closeError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Code == websocket.CloseNormalClosure {
			return err
		}
		return &interfaces.PrematureCloseError{Code: closeErr.Code, Reason: closeErr.Text}
	}
	return &interfaces.PrematureCloseError{Code: websocket.CloseAbnormalClosure, Reason: err.Error()}
}

// dispatch hands a frame to the call awaiting its id. Frames with no
// pending entry, such as unsolicited notifications, are dropped.
func (s *session) dispatch(resp *response) {
	s.mu.Lock()
	ch, ok := s.pending[resp.ID]
	if ok {
		delete(s.pending, resp.ID)
	}
	s.mu.Unlock()

	if !ok {
		s.log.Debug("Dropping unsolicited engine frame", "id", resp.ID)
		return
	}
	ch <- resp
}

// fail records the session's terminal error and wakes every in-flight call.
// The first error wins.
func (s *session) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	pending := s.pending
	s.pending = make(map[int]chan *response)
	s.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
}

func (s *session) terminalErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return &interfaces.PrematureCloseError{Code: websocket.CloseAbnormalClosure, Reason: "session closed"}
}

// abort drops the connection without a close frame. Used on failure paths;
// the remote reclaims the socket.
func (s *session) abort() {
	s.closeOnce.Do(func() { s.conn.Close() })
}

// closeNormal sends a normal-closure frame and releases the connection.
// Best effort: by the time it runs the session outcome is already decided.
func (s *session) closeNormal() {
	err := s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		s.log.Debug("Engine close frame not delivered", "err", err)
	}
	s.closeOnce.Do(func() { s.conn.Close() })
}

// call sends one frame and blocks until its correlated response, a session
// failure, or context cancellation. A response carrying an error field is
// terminal for the session and surfaces the remote message verbatim.
func (s *session) call(ctx context.Context, handle int, method string, params any) (json.RawMessage, error) {
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	s.nextID++
	id := s.nextID
	ch := make(chan *response, 1)
	s.pending[id] = ch
	s.mu.Unlock()

	if err := s.conn.WriteJSON(&request{
		JSONRPC: protocolVersion,
		ID:      id,
		Handle:  handle,
		Method:  method,
		Params:  params,
	}); err != nil {
		s.abort()
		return nil, fmt.Errorf("could not send %s: %w", method, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, s.terminalErr()
		}
		if resp.Error != nil {
			s.abort()
			return nil, &interfaces.EngineRemoteError{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		return resp.Result, nil
	case <-ctx.Done():
		s.abort()
		return nil, ctx.Err()
	}
}

// openDoc opens the selection application and returns its handle.
func (s *session) openDoc(ctx context.Context, app interfaces.AppID) (int, error) {
	result, err := s.call(ctx, rootHandle, methodOpenDoc, []any{app.String()})
	if err != nil {
		return 0, err
	}

	var opened struct {
		QReturn struct {
			QHandle int `json:"qHandle"`
		} `json:"qReturn"`
	}
	if err := json.Unmarshal(result, &opened); err != nil {
		s.abort()
		return 0, fmt.Errorf("%w: %v", interfaces.ErrProtocolDecode, err)
	}
	if opened.QReturn.QHandle == 0 {
		s.abort()
		return 0, fmt.Errorf("%w: open response carries no application handle", interfaces.ErrProtocolDecode)
	}
	return opened.QReturn.QHandle, nil
}

// RegisterNavigation opens the selection application, creates the
// link-navigation object referencing link, and saves the application. Any
// failure leaves the application unsaved and surfaces a classified error.
func (d *Driver) RegisterNavigation(ctx context.Context, selectionApp interfaces.AppID, link interfaces.LinkResource) error {
	s, err := d.dial(ctx, d.cfg.EngineURL(selectionApp))
	if err != nil {
		return err
	}
	defer s.abort()

	appHandle, err := s.openDoc(ctx, selectionApp)
	if err != nil {
		return err
	}
	d.log.Debug("Selection application opened", "appID", selectionApp, "handle", appHandle)

	props := navigationObjectProps{}
	props.QInfo.QType = navigationObjectType
	props.ODAGLinkRef.ID = link.ID.String()
	props.ODAGLinkRef.Name = link.Name
	if _, err := s.call(ctx, appHandle, methodCreateObject, []any{props}); err != nil {
		return err
	}

	if _, err := s.call(ctx, appHandle, methodDoSave, []any{}); err != nil {
		return err
	}

	d.log.Info("Navigation link registered", "appID", selectionApp, "linkID", link.ID)
	s.closeNormal()
	return nil
}

// ProbeEngine opens and immediately closes an app-less session, proving the
// engine endpoint accepts the credential set.
func (d *Driver) ProbeEngine(ctx context.Context) error {
	s, err := d.dial(ctx, d.cfg.EngineProbeURL())
	if err != nil {
		return err
	}
	s.closeNormal()
	return nil
}
