package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
)

// StoreResolver looks up an instance's program store, used to serve a
// request for any instance without the host needing to own every
// instance's store itself.
type StoreResolver interface {
	CanvasStore(ctx context.Context, instanceID string) (*Store, error)
}

// ProgramRootResolver resolves the on-disk directory an instance's
// programs live under, so the host's live-reload watcher can be pointed
// at it without re-deriving instance layout rules itself.
type ProgramRootResolver interface {
	InstanceProgramsDir(instanceID string) (string, error)
}

// Host serves every instance's canvas programs behind one HTTP listener,
// addressed by the ownai-program:// URL shape translated to an HTTP path
// of /{instance_id}/{program_name}[/{file_path}], and pushes a reload
// notice over a per-instance websocket connection set when an instance's
// program directory changes on disk.
type Host struct {
	host   string
	port   int
	addr   string
	stores StoreResolver
	roots  ProgramRootResolver
	logger *slog.Logger

	server   *http.Server
	listener net.Listener
	watcher  *fsnotify.Watcher

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]struct{} // instanceID -> connections
	watched map[string]struct{}                     // instanceID -> already-watched
}

// NewHost builds a canvas host bound to host:port. Nothing is served
// until Start is called.
func NewHost(host string, port int, stores StoreResolver, roots ProgramRootResolver, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		host:   host,
		port:   port,
		stores: stores,
		roots:  roots,
		logger: logger.With("component", "canvas_host"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[*websocket.Conn]struct{}),
		watched: make(map[string]struct{}),
	}
}

// Start opens the listener, registers the program and live-reload
// handlers, and begins serving in the background. It returns once the
// listener is bound; serving itself runs on its own goroutine.
func (h *Host) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create canvas watcher: %w", err)
	}
	h.watcher = watcher

	mux := http.NewServeMux()
	mux.HandleFunc("/reload/", h.reloadHandler)
	mux.HandleFunc("/", h.programHandler)

	addr := net.JoinHostPort(h.host, strconv.Itoa(h.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("canvas listen: %w", err)
	}
	h.listener = listener
	h.addr = addr
	h.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go h.watchLoop(ctx)
	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("canvas host server error", "error", err)
		}
	}()

	h.logger.Info("canvas host started", "addr", addr)
	return nil
}

// Close stops serving and closes the watcher and every open websocket.
func (h *Host) Close(ctx context.Context) error {
	if h.server != nil {
		if err := h.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	if h.watcher != nil {
		h.watcher.Close()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for conn := range conns {
			conn.Close()
		}
	}
	return nil
}

// programHandler serves a program file at /{instance_id}/{program_name}[/{file_path}].
func (h *Host) programHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, programName, filePath, ok := splitProgramPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	store, err := h.stores.CanvasStore(ctx, instanceID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.ensureWatched(instanceID)

	content, mime, err := store.Load(ctx, programName, filePath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Write(content)
}

// reloadHandler upgrades /reload/{instance_id} to a websocket that
// receives a "reload" text message whenever that instance's program
// directory changes on disk.
func (h *Host) reloadHandler(w http.ResponseWriter, r *http.Request) {
	instanceID := strings.TrimPrefix(r.URL.Path, "/reload/")
	if instanceID == "" {
		http.NotFound(w, r)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("canvas reload upgrade failed", "error", err)
		return
	}

	h.ensureWatched(instanceID)
	h.addClient(instanceID, conn)
	defer h.removeClient(instanceID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Host) addClient(instanceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[instanceID] == nil {
		h.clients[instanceID] = make(map[*websocket.Conn]struct{})
	}
	h.clients[instanceID][conn] = struct{}{}
}

func (h *Host) removeClient(instanceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[instanceID], conn)
	conn.Close()
}

// ensureWatched adds an instance's programs directory to the shared
// watcher the first time that instance is touched, rather than watching
// every registered instance upfront.
func (h *Host) ensureWatched(instanceID string) {
	h.mu.Lock()
	_, already := h.watched[instanceID]
	if !already {
		h.watched[instanceID] = struct{}{}
	}
	h.mu.Unlock()
	if already {
		return
	}

	root, err := h.roots.InstanceProgramsDir(instanceID)
	if err != nil {
		h.logger.Warn("canvas watch root unavailable", "instance_id", instanceID, "error", err)
		return
	}
	if err := h.watcher.Add(root); err != nil {
		h.logger.Warn("canvas watch add failed", "instance_id", instanceID, "root", root, "error", err)
	}
}

// watchLoop broadcasts a reload notice to every instance whose programs
// directory changed, keyed by matching the changed path's prefix against
// each watched instance's root.
func (h *Host) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			h.broadcastForPath(evt.Name)
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Warn("canvas watcher error", "error", err)
		}
	}
}

func (h *Host) broadcastForPath(changedPath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for instanceID, conns := range h.clients {
		root, err := h.roots.InstanceProgramsDir(instanceID)
		if err != nil || !strings.HasPrefix(changedPath, root) {
			continue
		}
		for conn := range conns {
			if err := conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
				h.logger.Warn("canvas reload push failed", "instance_id", instanceID, "error", err)
			}
		}
	}
}

// splitProgramPath parses /{instance_id}/{program_name}[/{file_path...}],
// the same shape ParseURL parses for the ownai-program:// scheme. A
// missing file_path defaults to defaultFile, since Store.Load requires
// a non-empty path.
func splitProgramPath(urlPath string) (instanceID, programName, filePath string, ok bool) {
	trimmed := strings.TrimPrefix(urlPath, "/")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	instanceID = parts[0]
	programName = parts[1]
	filePath = defaultFile
	if len(parts) == 3 && parts[2] != "" {
		filePath = parts[2]
	}
	return instanceID, programName, filePath, true
}
