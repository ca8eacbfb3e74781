package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"volcap/internal/api"
	"volcap/internal/daemon"
	"volcap/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Volcap", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("enforcement start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "enforcement started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("enforcement stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Enforcement = api.FromEngineStatus(status.Enforcement)
	resp.SettingsDBPath = status.SettingsDBPath
	resp.LockPath = status.LockFilePath
	resp.Dependencies = make([]DependencyStatus, 0, len(status.Dependencies))
	for _, dep := range status.Dependencies {
		resp.Dependencies = append(resp.Dependencies, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return nil
}

func (s *service) Devices(req DevicesRequest, resp *DevicesResponse) error {
	views := s.daemon.Devices()
	if req.IncludeDisconnected {
		views = s.daemon.KnownDevices()
	}
	resp.Devices = api.FromDeviceViews(views)
	resp.Revision = s.daemon.Revision()
	return nil
}

func (s *service) GlobalMax(_ GlobalMaxRequest, resp *GlobalMaxResponse) error {
	resp.MaxVolume = s.daemon.GlobalMaxVolume()
	return nil
}

func (s *service) SetGlobalMax(req SetGlobalMaxRequest, resp *SetGlobalMaxResponse) error {
	views, err := s.daemon.SetGlobalMaxVolume(s.ctx, req.MaxVolume)
	if err != nil {
		return err
	}
	resp.Devices = api.FromDeviceViews(views)
	resp.Revision = s.daemon.Revision()
	return nil
}

func (s *service) SetDeviceMax(req SetDeviceMaxRequest, resp *SetDeviceMaxResponse) error {
	view, err := s.daemon.SetDeviceMaxVolume(s.ctx, req.ID, req.MaxVolume)
	if err != nil {
		return err
	}
	resp.Device = api.FromDeviceView(view)
	return nil
}

func (s *service) DevicesWait(req DevicesWaitRequest, resp *DevicesWaitResponse) error {
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 {
		wait = time.Second
	}
	waitCtx, cancel := context.WithTimeout(s.ctx, wait)
	defer cancel()

	update, err := s.daemon.WaitForUpdate(waitCtx, req.SinceRevision)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			resp.Devices = api.FromDeviceViews(s.daemon.Devices())
			resp.Revision = s.daemon.Revision()
			resp.Changed = false
			return nil
		}
		return err
	}
	resp.Devices = api.FromDeviceViews(update.Devices)
	resp.Revision = update.Revision
	resp.Changed = true
	return nil
}
