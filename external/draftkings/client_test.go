package draftkings

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestDecodeExportBody_PlainCSV(t *testing.T) {
	t.Parallel()

	rows, err := decodeExportBody("text/csv", []byte("Rank,EntryId,EntryName\n1,4509000001,sharkbait\n"))
	if err != nil {
		t.Fatalf("decode csv export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got=%d", len(rows))
	}
	if rows[1][2] != "sharkbait" {
		t.Fatalf("expected entry name sharkbait, got=%q", rows[1][2])
	}
}

func TestDecodeExportBody_RaggedRowsAllowed(t *testing.T) {
	t.Parallel()

	body := []byte("Rank,EntryId,EntryName,TimeRemaining,Points,Lineup\n" +
		"1,4509000001,sharkbait,30,112.5,G Scottie Scheffler G Ludvig Aberg\n" +
		",,,,,,,Scottie Scheffler,G,35.5%,71.5\n")
	rows, err := decodeExportBody("text/csv", body)
	if err != nil {
		t.Fatalf("decode ragged export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got=%d", len(rows))
	}
	if rows[2][7] != "Scottie Scheffler" {
		t.Fatalf("expected roster row player name, got=%q", rows[2][7])
	}
}

func TestDecodeExportBody_ZipArchive(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	entry, err := archive.Create("contest-standings-555.csv")
	if err != nil {
		t.Fatalf("create archive entry: %v", err)
	}
	if _, err := entry.Write([]byte("Rank,EntryId\n1,4509000001\n")); err != nil {
		t.Fatalf("write archive entry: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	rows, err := decodeExportBody("application/zip", buf.Bytes())
	if err != nil {
		t.Fatalf("decode zip export: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "1" {
		t.Fatalf("unexpected rows from zip export: %v", rows)
	}
}

func TestDecodeExportBody_HTMLMeansRejectedSession(t *testing.T) {
	t.Parallel()

	_, err := decodeExportBody("text/html; charset=utf-8", []byte("<html>sign in</html>"))
	if err == nil {
		t.Fatal("expected error for html export body")
	}
	if !strings.Contains(err.Error(), "session cookies") {
		t.Fatalf("expected session cookie error, got=%v", err)
	}
}

func TestDecodeExportBody_BadZipFails(t *testing.T) {
	t.Parallel()

	_, err := decodeExportBody("application/octet-stream", []byte("PKnot-a-zip"))
	if err == nil {
		t.Fatal("expected error for corrupt archive")
	}
}

func TestSalaryRows_UnknownSportFails(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{})
	_, err := client.SalaryRows(t.Context(), "CURLING", 42)
	if err == nil {
		t.Fatal("expected error for unmapped sport")
	}
	if !strings.Contains(err.Error(), "CURLING") {
		t.Fatalf("expected sport in error, got=%v", err)
	}
}

func TestSanitizeSensitiveText_RedactsCookie(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText("dial failed for Cookie: jwe=secret-token", "jwe=secret-token")
	if strings.Contains(got, "secret-token") {
		t.Fatalf("expected cookie redacted, got=%q", got)
	}
	if !strings.Contains(got, "REDACTED") {
		t.Fatalf("expected REDACTED marker, got=%q", got)
	}
}
