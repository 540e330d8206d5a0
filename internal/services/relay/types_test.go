package relay

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"default canny", DefaultParams(), false},
		{"equal thresholds", Params{Method: MethodCanny, Low: 50, High: 50}, false},
		{"hands ignores thresholds", Params{Method: MethodHands, Low: -1, High: -5}, false},
		{"faces", Params{Method: MethodFaces}, false},
		{"unknown method", Params{Method: "sobel"}, true},
		{"empty method", Params{}, true},
		{"negative low", Params{Method: MethodCanny, Low: -1, High: 10}, true},
		{"low above high", Params{Method: MethodCanny, Low: 300, High: 200}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("error %v should wrap ErrInvalidParams", err)
			}
		})
	}
}

func TestParams_Fields(t *testing.T) {
	fields := Params{Method: MethodCanny, Low: 100, High: 200}.Fields()
	if len(fields) != 2 || fields["low"] != "100" || fields["high"] != "200" {
		t.Errorf("canny fields = %v", fields)
	}

	if fields := (Params{Method: MethodFaces, Low: 1, High: 2}).Fields(); len(fields) != 0 {
		t.Errorf("faces should carry no fields, got %v", fields)
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = (%q, %v)", m, got, err)
		}
	}
	if _, err := ParseMethod("CANNY"); err == nil {
		t.Error("method names are case sensitive")
	}
}

func TestJPEGEncoder(t *testing.T) {
	data, contentType, err := JPEGEncoder{Quality: 90}.Encode(testImage())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("contentType = %q", contentType)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "jpeg" || img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Errorf("decoded %s %v", format, img.Bounds())
	}

	if _, _, err := (JPEGEncoder{}).Encode(nil); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestStillSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src := NewStillSource(path)
	if _, err := src.Read(); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Read before Open = %v, expected ErrSourceUnavailable", err)
	}
	if err := src.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		frame, err := src.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if frame.Width != 32 || frame.Height != 24 {
			t.Errorf("frame size = %dx%d", frame.Width, frame.Height)
		}
		if frame.CapturedAt.IsZero() {
			t.Error("frame should carry a capture time")
		}
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestStillSource_MissingFile(t *testing.T) {
	src := NewStillSource(filepath.Join(t.TempDir(), "missing.png"))
	if err := src.Open(); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Open = %v, expected ErrSourceUnavailable", err)
	}
}

func TestEvent_Message(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{Event{Kind: EventSubmitted, Seq: 3}, "frame #3 submitted"},
		{Event{Kind: EventDropped}, "tick skipped: request in flight"},
		{Event{Kind: EventDisplayed, Seq: 4}, "frame #4 displayed"},
		{Event{Kind: EventFailed, Seq: 5, Err: errors.New("timeout")}, "frame #5 failed: timeout"},
		{Event{Kind: EventStopped}, "capture stopped"},
	}

	for _, tt := range tests {
		if got := tt.event.Message(); got != tt.want {
			t.Errorf("Message() = %q, expected %q", got, tt.want)
		}
	}
}
