package contracts

import (
	"errors"
	"reflect"
	"testing"
)

func TestWrapRoundTrip(t *testing.T) {
	events := []Event{
		BuildStarted{Target: "App", Project: "App", Configuration: "Release", IsDefault: true},
		BuildActionStarted{Type: "CompileC", Arguments: []string{"a.o", "a.m"}},
		DiagnosticDetected{Severity: SeverityWarning, File: "a.m", Line: 3, Column: 7, Message: "unused variable"},
		EnvVarDetected{Name: "PATH", Value: "/usr/bin"},
		CommandFailed{Command: "/usr/bin/clang", ExitCode: 1},
		BuildActionStepFailed{Type: "CompileC", Arguments: []string{"a.o"}},
		BuildActionFailed{Type: "CompileC", Arguments: []string{"a.o"}},
		BuildSucceeded{Mode: "BUILD"},
		BuildFailed{Mode: "ARCHIVE"},
	}

	for i, ev := range events {
		t.Run(string(ev.Kind()), func(t *testing.T) {
			env := Wrap("run-1", i, ev)
			if env.Kind != ev.Kind() {
				t.Fatalf("Wrap() kind = %s, want %s", env.Kind, ev.Kind())
			}
			got, err := env.Event()
			if err != nil {
				t.Fatalf("Event() error = %v", err)
			}
			if !reflect.DeepEqual(got, ev) {
				t.Errorf("Event() = %#v, want %#v", got, ev)
			}
		})
	}
}

func TestEnvelopeThroughCodecs(t *testing.T) {
	for _, name := range []string{"json", "msgpack"} {
		t.Run(name, func(t *testing.T) {
			codec, err := CodecByName(name)
			if err != nil {
				t.Fatalf("CodecByName(%q) error = %v", name, err)
			}

			want := DiagnosticDetected{Severity: SeverityError, File: "main.m", Line: 16, Column: 42, Message: "expected ';'"}
			data, err := codec.Marshal(Wrap("run-9", 4, want))
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			var env EventEnvelope
			if err := codec.Unmarshal(data, &env); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			got, err := env.Event()
			if err != nil {
				t.Fatalf("Event() error = %v", err)
			}
			if got != Event(want) {
				t.Errorf("decoded %#v, want %#v", got, want)
			}
			if env.RunID != "run-9" || env.Seq != 4 {
				t.Errorf("envelope header = %s/%d, want run-9/4", env.RunID, env.Seq)
			}
		})
	}
}

func TestEnvelopeErrors(t *testing.T) {
	_, err := EventEnvelope{Kind: "nonsense"}.Event()
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("unknown kind error = %v, want ErrUnknownEvent", err)
	}

	_, err = EventEnvelope{Kind: KindBuildStarted}.Event()
	if err == nil {
		t.Error("missing payload should return an error")
	}
}

func TestCodecByNameUnknown(t *testing.T) {
	if _, err := CodecByName("xml"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("CodecByName(xml) error = %v, want ErrUnknownCodec", err)
	}
	codec, err := CodecByName("")
	if err != nil || codec.Name() != "json" {
		t.Errorf("CodecByName(\"\") = %v, %v; want json codec", codec, err)
	}
}
