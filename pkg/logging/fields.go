package logging

import "log/slog"

// Domain identifiers

func Identity(id string) slog.Attr {
	return slog.String("identity_id", id)
}

func Room(id string) slog.Attr {
	return slog.String("room_id", id)
}

func Message(id string) slog.Attr {
	return slog.String("message_id", id)
}

func Event(t string) slog.Attr {
	return slog.String("event_type", t)
}

// Request / tracing

func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func TraceID(id string) slog.Attr {
	return slog.String("trace_id", id)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
