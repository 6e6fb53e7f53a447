package caption

import "strings"

// RecordSuffix is appended to an image key's base name to form the key of
// its caption record.
const RecordSuffix = "_info.txt"

// FormatRecord renders a result as the stored two-line record.
func FormatRecord(r Result) []byte {
	var b strings.Builder
	b.WriteString("Caption: ")
	b.WriteString(r.Caption)
	b.WriteString("\n")
	b.WriteString("Description: ")
	b.WriteString(r.Description)
	b.WriteString("\n")
	return []byte(b.String())
}

// ParseRecord reads a stored record back into a Result. Parsing is lenient:
// a record with missing or malformed lines yields sentinel text for the
// affected field instead of an error, because records are best-effort and
// may be absent or truncated.
func ParseRecord(data []byte) Result {
	r := Result{Caption: MissingCaption, Description: MissingDescription}
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "Caption: "); ok && v != "" {
			r.Caption = v
		} else if v, ok := strings.CutPrefix(line, "Description: "); ok && v != "" {
			r.Description = v
		}
	}
	return r
}

// RecordKey computes the caption-record key that sits beside an image key:
// the image's extension is stripped and the record suffix appended.
func RecordKey(imageKey string) string {
	base := imageKey
	if i := strings.LastIndex(imageKey, "."); i > strings.LastIndex(imageKey, "/") {
		base = imageKey[:i]
	}
	return base + RecordSuffix
}
