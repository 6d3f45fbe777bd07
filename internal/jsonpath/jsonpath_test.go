package jsonpath

import "testing"

func TestLookup(t *testing.T) {
	root := map[string]interface{}{
		"text": "hello",
		"segments": []interface{}{
			map[string]interface{}{"text": "first"},
			map[string]interface{}{"text": "second"},
		},
		"results": []interface{}{
			map[string]interface{}{
				"alternatives": []interface{}{
					map[string]interface{}{"transcript": "ok"},
				},
			},
		},
	}

	if v, ok := Lookup(root, "segments[1].text"); !ok || v != "second" {
		t.Fatalf("expected second, got %q (ok=%v)", v, ok)
	}
	if v, ok := Lookup(root, "results[0].alternatives[0].transcript"); !ok || v != "ok" {
		t.Fatalf("expected ok, got %q (ok=%v)", v, ok)
	}
	if _, ok := Lookup(root, "segments[99].text"); ok {
		t.Fatal("expected out-of-range index to miss")
	}
	if _, ok := Lookup(root, "missing.path"); ok {
		t.Fatal("expected missing key to miss")
	}
}

func TestTextFallbacks(t *testing.T) {
	body := []byte(`{"transcription":"spoken words"}`)
	if got := Text(body, "text"); got != "spoken words" {
		t.Fatalf("expected fallback to any string field, got %q", got)
	}

	body = []byte(`{"text":"primary","other":"secondary"}`)
	if got := Text(body, ""); got != "primary" {
		t.Fatalf("expected text field to win, got %q", got)
	}

	if got := Text([]byte(`not json`), "text"); got != "" {
		t.Fatalf("expected empty result for invalid JSON, got %q", got)
	}
}

func TestSplitToken(t *testing.T) {
	key, idxs, err := splitToken("foo[0][1]")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if key != "foo" || len(idxs) != 2 || idxs[0] != 0 || idxs[1] != 1 {
		t.Fatalf("unexpected parse result: key=%s idxs=%v", key, idxs)
	}
	if _, _, err := splitToken("foo[]"); err == nil {
		t.Fatal("expected error for empty index")
	}
	if _, _, err := splitToken("foo[x]"); err == nil {
		t.Fatal("expected error for non-numeric index")
	}
}
