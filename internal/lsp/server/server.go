package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	iLsp "github.com/jwtly10/texd/internal/lsp"
	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

const (
	// MethodPreview returns the LaTeX an open document transpiles to
	MethodPreview = "texd/preview"

	methodPublishDiagnostics = "textDocument/publishDiagnostics"
	methodShowMessage        = "window/showMessage"
)

// notifier sends notifications to the client, *jsonrpc2.Conn in production
type notifier interface {
	Notify(ctx context.Context, method string, params interface{}, opts ...jsonrpc2.CallOption) error
}

type Server struct {
	conn notifier
	// tracks canceled request IDs
	cancelMap sync.Map

	// tracking for method request counts
	trackRequestCount sync.Map

	// abstraction for transpiling operations
	docService *iLsp.DocumentService

	mu           sync.Mutex
	shutdownSeen bool
	// exit terminates the process, os.Exit outside of tests
	exit func(code int)
}

type Options struct {
	DocService iLsp.DocumentServiceOptions
}

var DefaultServerOptions = Options{
	DocService: iLsp.DefaultDocumentServiceOptions,
}

// PreviewParams are the params of a texd/preview request
type PreviewParams struct {
	TextDocument lsp.TextDocumentIdentifier `json:"textDocument"`
}

// PreviewResult is the result of a texd/preview request
type PreviewResult struct {
	URI   lsp.DocumentURI `json:"uri"`
	LaTeX string          `json:"latex"`
}

func NewServer(options Options) (*Server, error) {
	dService, err := iLsp.NewDocumentService(options.DocService)
	if err != nil {
		return nil, err
	}

	return &Server{
		docService: dService,
		exit:       os.Exit,
	}, nil
}

func (s *Server) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	if s.conn == nil && conn != nil {
		s.conn = conn
	}
	slog.Info("received request", "method", req.Method, "id", req.ID)
	reqCount, _ := s.trackRequestCount.LoadOrStore(req.Method, 1)
	if count, ok := reqCount.(int); ok {
		s.trackRequestCount.Store(req.Method, count+1)
	}

	if _, ok := s.cancelMap.Load(req.ID.String()); ok {
		slog.Debug("request was canceled", "id", req.ID)
		s.cancelMap.Delete(req.ID.String())
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		slog.Info("initializing lsp server")

		var initParams lsp.InitializeParams
		if err := unmarshalParams(req, &initParams); err != nil {
			return nil, err
		}

		slog.Debug("client info", "root", initParams.RootURI)

		return lsp.InitializeResult{
			Capabilities: lsp.ServerCapabilities{
				TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
					Options: &lsp.TextDocumentSyncOptions{
						OpenClose: true,
						Change:    lsp.TDSKFull,
						Save:      &lsp.SaveOptions{IncludeText: false},
					},
				},
			},
		}, nil

	case "initialized":
		slog.Info("server initialized")
		return nil, nil
	case "shutdown":
		slog.Info("shutting down")

		s.mu.Lock()
		s.shutdownSeen = true
		s.mu.Unlock()

		s.printDebugStats()

		return nil, nil
	case "exit":
		slog.Info("exiting")

		s.mu.Lock()
		code := 1
		if s.shutdownSeen {
			code = 0
		}
		s.mu.Unlock()

		s.exit(code)
		return nil, nil

	// Biz logic
	case "textDocument/didOpen":
		// The file is transpiled on open, so diagnostics are shown initially
		var params lsp.DidOpenTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}

		s.docService.Update(params.TextDocument.URI, params.TextDocument.Text)
		return nil, s.publishDiagnostics(ctx, params.TextDocument.URI)
	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}

		if len(params.ContentChanges) == 0 {
			return nil, nil
		}

		// Full sync, the last change holds the whole document
		text := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.docService.Update(params.TextDocument.URI, text)
		return nil, s.publishDiagnostics(ctx, params.TextDocument.URI)
	case "textDocument/didSave":
		var params lsp.DidSaveTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}

		res, err := s.docService.TransformFinalDoc(ctx, params.TextDocument.URI)
		if err != nil {
			slog.Error("failed to transform document on save", "uri", params.TextDocument.URI, "error", err)
			return nil, s.notify(ctx, methodShowMessage, lsp.ShowMessageParams{
				Type:    lsp.MTError,
				Message: fmt.Sprintf("texd: %v", err),
			})
		}

		slog.Info("document compiled", "uri", params.TextDocument.URI, "tex", res.TexPath, "pdf", res.PDFPath)
		return nil, nil
	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}

		s.docService.Forget(params.TextDocument.URI)
		// clear what was published for the document
		return nil, s.notify(ctx, methodPublishDiagnostics, lsp.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []lsp.Diagnostic{},
		})
	case MethodPreview:
		var params PreviewParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}

		latex, err := s.docService.Preview(params.TextDocument.URI)
		if err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		return PreviewResult{URI: params.TextDocument.URI, LaTeX: latex}, nil
	case "$/cancelRequest":
		var params lsp.CancelParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		slog.Debug("canceling request", "id", params.ID)
		s.cancelMap.Store(params.ID.String(), struct{}{})
		return nil, nil

	default:
		slog.Warn("unknown method", "method", req.Method)
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", req.Method),
		}
	}
}

func (s *Server) publishDiagnostics(ctx context.Context, uri lsp.DocumentURI) error {
	params, err := s.docService.Diagnostics(uri)
	if err != nil {
		return err
	}
	return s.notify(ctx, methodPublishDiagnostics, params)
}

func (s *Server) notify(ctx context.Context, method string, params interface{}) error {
	if s.conn == nil {
		slog.Warn("no client connection, dropping notification", "method", method)
		return nil
	}
	return s.conn.Notify(ctx, method, params)
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func (s *Server) printDebugStats() {
	s.trackRequestCount.Range(func(key, value interface{}) bool {
		msg := fmt.Sprintf("Method: %-30s Count: %d", key.(string), value.(int))
		slog.Debug(msg)
		return true
	})
}
