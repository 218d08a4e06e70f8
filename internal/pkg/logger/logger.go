package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// ZeroLogger é a implementação concreta da interface Logger sobre o zerolog,
// com saída JSON (ou console, para desenvolvimento).
type ZeroLogger struct {
	base zerolog.Logger
}

// NewLogger cria e retorna uma nova instância do Logger em JSON no stdout.
// Esta função é chamada no main.go.
func NewLogger(level string) Logger {
	return New(level, "json", os.Stdout)
}

// New permite escolher o formato ("json" ou "console") e o destino.
func New(level, format string, out io.Writer) Logger {
	if out == nil {
		out = os.Stdout
	}
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	base := zerolog.New(out).
		With().
		Timestamp().
		Str("service", "gofarma").
		Logger().
		Level(parseLevel(level))

	return &ZeroLogger{base: base}
}

// NewNop descarta tudo; útil em testes que não verificam logs.
func NewNop() Logger {
	return &ZeroLogger{base: zerolog.Nop()}
}

// parseLevel traduz o LOG_LEVEL; valores desconhecidos viram info.
func parseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Implementações da Interface Logger

func (l *ZeroLogger) Debug(msg string, fields map[string]interface{}) {
	l.base.Debug().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Info(msg string, fields map[string]interface{}) {
	l.base.Info().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Warn(msg string, fields map[string]interface{}) {
	l.base.Warn().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, err error) {
	l.base.Error().Err(err).Msg(msg)
}

// Fatal registra e encerra o processo.
func (l *ZeroLogger) Fatal(msg string, err error) {
	l.base.Fatal().Err(err).Msg(msg)
}
