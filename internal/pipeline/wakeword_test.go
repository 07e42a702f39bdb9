package pipeline

import "testing"

func TestWakeWordName(t *testing.T) {
	cases := map[string]string{
		"models/hey_otto.onnx":        "hey_otto",
		"/abs/path/alexa.onnx":        "alexa",
		"hey_jarvis.onnx":             "hey_jarvis",
		"models/sub/dir/computer.onnx": "computer",
	}
	for path, want := range cases {
		if got := wakeWordName(path); got != want {
			t.Errorf("wakeWordName(%q) = %q, want %q", path, got, want)
		}
	}
}
