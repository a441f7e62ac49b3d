package utils

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{
			name:       "empty text",
			text:       "",
			chunkSize:  10,
			overlap:    2,
			wantChunks: 0,
		},
		{
			name:       "shorter than one chunk",
			text:       "one two three",
			chunkSize:  10,
			overlap:    2,
			wantChunks: 1,
		},
		{
			name:       "exact multiple",
			text:       strings.Repeat("word ", 20),
			chunkSize:  10,
			overlap:    0,
			wantChunks: 2,
		},
		{
			name:       "overlap produces extra chunks",
			text:       strings.Repeat("word ", 20),
			chunkSize:  10,
			overlap:    5,
			wantChunks: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, tt.chunkSize, tt.overlap)
			if len(chunks) != tt.wantChunks {
				t.Errorf("chunk count = %d, want %d", len(chunks), tt.wantChunks)
			}
		})
	}
}

func TestSplitTextOverlapSharesWords(t *testing.T) {
	text := "a b c d e f g h i j"
	chunks := SplitText(text, 4, 2)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	firstWords := strings.Fields(chunks[0])
	secondWords := strings.Fields(chunks[1])
	if firstWords[2] != secondWords[0] || firstWords[3] != secondWords[1] {
		t.Errorf("chunks do not overlap: %q then %q", chunks[0], chunks[1])
	}
}
