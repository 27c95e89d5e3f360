package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/forgehq/forged/internal"
	"github.com/forgehq/forged/internal/build"
	"github.com/forgehq/forged/internal/protocol"
)

// Builds an image from the descriptor in the request.
func (s *Server) handleBuild(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.BuildRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.mu.Lock()
	s.builds++
	s.mu.Unlock()

	result, err := build.Run(ctx, s.runtime, build.Options{
		Image:   req.Image,
		Tag:     req.Tag,
		Context: req.Context,
		Output:  req.Output,
	})
	if err != nil {
		slog.Error("build failed", "tag", req.Tag, "error", err)
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.respond(conn, protocol.CmdOK, &protocol.BuildResult{
		Tag:    result.Tag,
		Output: result.Output,
	})
}

// Runs a built image to completion and reports its exit code.
//
// Container output is discarded at the daemon. Clients that want the
// process output run the image through the runtime directly; the daemon
// run command exists for fire-and-forget execution and exit code checks.
func (s *Server) handleRun(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.RunRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	id := req.ID
	if id == "" {
		id = runID(req.Tag)
	}

	code, err := s.runtime.RunImage(ctx, req.Tag, id, io.Discard, io.Discard)
	if err != nil {
		slog.Error("run failed", "tag", req.Tag, "error", err)
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.respond(conn, protocol.CmdOK, &protocol.RunResult{ExitCode: code})
}

// Sequence counter for default run container identifiers.
var runSeq atomic.Uint64

// Derives a default container ID for a run from the image tag.
//
// The sequence suffix keeps concurrent runs of the same image from
// colliding: RunImage removes any existing container with its ID before
// starting, so reusing an ID would kill a run still in flight.
func runID(tag string) string {
	return fmt.Sprintf("forged-run-%s-%d", build.TagSlug(tag), runSeq.Add(1))
}

// Imports an image from an OCI archive and tags it.
func (s *Server) handleImageImport(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.ImageImportRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	if err := s.runtime.ImportImage(ctx, req.Path, req.Tag); err != nil {
		slog.Error("image import failed", "path", req.Path, "error", err)
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.respond(conn, protocol.CmdOK, nil)
}

// Removes an image from the containerd image store.
func (s *Server) handleImageDestroy(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.ImageDestroyRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	if err := s.runtime.DestroyImage(ctx, req.Tag); err != nil {
		slog.Error("image destroy failed", "tag", req.Tag, "error", err)
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.respond(conn, protocol.CmdOK, nil)
}

// Reports daemon status.
func (s *Server) handleStatus(conn net.Conn) {
	s.mu.Lock()
	builds := s.builds
	s.mu.Unlock()

	s.respond(conn, protocol.CmdOK, &protocol.StatusResult{
		Running: true,
		Version: internal.VersionString(),
		Pid:     os.Getpid(),
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
		Builds:  builds,
	})
}

// Acknowledges the shutdown request, then stops the server.
func (s *Server) handleShutdown(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)

	slog.Info("shutdown requested")
	go s.Stop()
}
