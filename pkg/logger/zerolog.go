package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

// ZerologBuild configures a zerolog-backed Logger.
type ZerologBuild struct {
	writer io.Writer
	path   string
}

// ZerologHandler implements Logger on top of a zerolog.Logger.
type ZerologHandler struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

func NewZerolog() *ZerologBuild {
	return &ZerologBuild{}
}

func (build *ZerologBuild) FromPath(path string) *ZerologBuild {
	build.path = path
	return build
}

func (build *ZerologBuild) FromBuffer(w io.Writer) *ZerologBuild {
	build.writer = w
	return build
}

func (build *ZerologBuild) Make() (handler *ZerologHandler, err error) {
	handler = new(ZerologHandler)
	writer := build.writer
	if writer == nil {
		writer = os.Stdout
	}
	if build.path != "" {
		handler.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		writer = zerolog.SyncWriter(handler.LogFile)
	}
	handler.Logger = zerolog.New(writer).With().Timestamp().Logger()
	return
}

func (handler *ZerologHandler) Error(msg string, args ...any) {
	handler.Logger.Error().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Warn(msg string, args ...any) {
	handler.Logger.Warn().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Info(msg string, args ...any) {
	handler.Logger.Info().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Debug(msg string, args ...any) {
	handler.Logger.Debug().Fields(args).Msg(msg)
}