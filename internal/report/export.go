package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// ExportCSV writes one row per subdomain, sorted by name.
func ExportCSV(doc *Document, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"subdomain", "ip", "cname", "http_status", "active"}); err != nil {
		return err
	}
	for _, name := range sortedKeys(doc.Subdomains) {
		rec := doc.Subdomains[name]
		status := ""
		if rec.HTTPStatus != nil {
			status = strconv.Itoa(*rec.HTTPStatus)
		}
		row := []string{name, deref(rec.IP), deref(rec.CNAME), status, strconv.FormatBool(rec.Active())}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
