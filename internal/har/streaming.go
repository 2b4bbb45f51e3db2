package har

import (
	"encoding/json"
	"fmt"
	"io"
)

// StreamEntries walks log.entries of a HAR document one entry at a time,
// calling fn for each in document order. Other keys are skipped without
// being retained. Returning an error from fn stops the walk.
func StreamEntries(r io.Reader, fn func(entry HAREntry, index int) error) error {
	_, err := StreamLog(r, fn)
	return err
}

// StreamLog is StreamEntries that also returns the log metadata (version,
// creator, browser, pages, comment). The returned log has no entries.
func StreamLog(r io.Reader, fn func(entry HAREntry, index int) error) (HARLog, error) {
	var header HARLog
	rc, err := decompressingReader(r)
	if err != nil {
		return header, err
	}
	defer rc.Close()

	decoder := json.NewDecoder(rc)
	if err := expectDelim(decoder, '{', "HAR document"); err != nil {
		return header, err
	}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return header, err
		}
		if key, ok := token.(string); ok && key == "log" {
			if err := streamLog(decoder, &header, fn); err != nil {
				return header, err
			}
		} else if err := skipValue(decoder); err != nil {
			return header, err
		}
	}
	return header, nil
}

func streamLog(decoder *json.Decoder, header *HARLog, fn func(HAREntry, int) error) error {
	if err := expectDelim(decoder, '{', "log object"); err != nil {
		return err
	}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key, _ := token.(string)
		switch key {
		case "entries":
			err = streamEntryArray(decoder, fn)
		case "version":
			err = decoder.Decode(&header.Version)
		case "creator":
			err = decoder.Decode(&header.Creator)
		case "browser":
			err = decoder.Decode(&header.Browser)
		case "pages":
			err = decoder.Decode(&header.Pages)
		case "comment":
			err = decoder.Decode(&header.Comment)
		default:
			err = skipValue(decoder)
		}
		if err != nil {
			return err
		}
	}

	// closing brace of log
	_, err := decoder.Token()
	return err
}

func streamEntryArray(decoder *json.Decoder, fn func(HAREntry, int) error) error {
	if err := expectDelim(decoder, '[', "entries array"); err != nil {
		return err
	}

	index := 0
	for decoder.More() {
		var entry HAREntry
		if err := decoder.Decode(&entry); err != nil {
			return fmt.Errorf("entry %d: %w", index, err)
		}
		if err := fn(entry, index); err != nil {
			return err
		}
		index++
	}

	_, err := decoder.Token()
	return err
}

func expectDelim(decoder *json.Decoder, want json.Delim, what string) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q opening %s", want, what)
	}
	return nil
}

func skipValue(decoder *json.Decoder) error {
	var dummy json.RawMessage
	return decoder.Decode(&dummy)
}
