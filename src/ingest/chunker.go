package ingest

import (
	"context"
	"fmt"
	"strings"

	"xcreport/src/broker"
	"xcreport/src/contracts"
)

// TargetChunkSize is the default upper bound for the lines of one chunk (500KB).
const TargetChunkSize = 500 * 1024

// ChunkLines splits a console log into ordered chunks of at most maxBytes of line data.
// Every line lands in exactly one chunk, blank lines included, because the translator's
// state depends on all of them. A single line longer than maxBytes gets a chunk of its
// own. The last chunk is marked Final; an empty log yields one empty Final chunk so the
// receiver still learns the run ended.
func ChunkLines(runID, source, content string, maxBytes int) []contracts.LogChunk {
	if maxBytes <= 0 {
		maxBytes = TargetChunkSize
	}

	lines := splitLines(content)
	var chunks []contracts.LogChunk
	current := contracts.LogChunk{RunID: runID, Source: source, LineStart: 1}
	size := 0

	for i, line := range lines {
		lineSize := len(line) + 1 // +1 for newline
		if size+lineSize > maxBytes && len(current.Lines) > 0 {
			chunks = append(chunks, current)
			current = contracts.LogChunk{RunID: runID, Source: source, Seq: len(chunks), LineStart: i + 1}
			size = 0
		}
		current.Lines = append(current.Lines, line)
		size += lineSize
	}

	current.Final = true
	return append(chunks, current)
}

// splitLines splits on LF. A trailing newline does not start an extra line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Submit chunks content and publishes every chunk to contracts.TopicLogsRaw keyed by
// runID, in order. It returns the number of chunks published.
func Submit(ctx context.Context, pub *broker.Codec, runID, source, content string, maxBytes int) (int, error) {
	chunks := ChunkLines(runID, source, content, maxBytes)
	for i, chunk := range chunks {
		if err := pub.Publish(ctx, contracts.TopicLogsRaw, runID, chunk); err != nil {
			return i, fmt.Errorf("failed to publish chunk %d of run %s: %w", chunk.Seq, runID, err)
		}
	}
	return len(chunks), nil
}

// FormatChunkInfo returns a human-readable summary of chunk information.
func FormatChunkInfo(chunk contracts.LogChunk) string {
	final := ""
	if chunk.Final {
		final = " (final)"
	}
	return fmt.Sprintf("Chunk %d of %s: lines %d-%d%s",
		chunk.Seq,
		chunk.RunID,
		chunk.LineStart,
		chunk.LineStart+len(chunk.Lines)-1,
		final)
}
