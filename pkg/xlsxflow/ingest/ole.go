package ingest

import (
	"io"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
)

// OLEInfo describes a compound file.
type OLEInfo struct {
	// Encrypted is true for password protected OOXML workbooks.
	Encrypted bool `json:"encrypted"`
	// Legacy is true for BIFF workbooks (.xls).
	Legacy bool `json:"legacy"`
	// Streams lists the stream names in directory order.
	Streams []string `json:"streams"`
	// Properties holds the summary information property set.
	Properties map[string]string `json:"properties,omitempty"`
}

// InspectOLE reads the directory and summary properties of a compound file.
func InspectOLE(r io.ReaderAt) (*OLEInfo, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, err
	}

	info := &OLEInfo{Properties: make(map[string]string)}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		info.Streams = append(info.Streams, entry.Name)
		switch entry.Name {
		case "EncryptionInfo", "EncryptedPackage":
			info.Encrypted = true
		case "Workbook", "Book":
			info.Legacy = true
		case "\x05SummaryInformation", "\x05DocumentSummaryInformation":
			props := msoleps.New()
			if err := props.Reset(entry); err != nil {
				continue
			}
			for _, p := range props.Property {
				if s := p.String(); s != "" {
					info.Properties[p.Name] = s
				}
			}
		}
	}
	return info, nil
}
