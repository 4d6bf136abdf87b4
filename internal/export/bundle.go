package export

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

// BundleName is the file name of the all-ledgers archive.
const BundleName = "Data_Gampong_Kota_Langsa.zip"

// File is one rendered workbook.
type File struct {
	Name string
	Data []byte
}

// Bundle writes files as a zip archive to w.
func Bundle(w io.Writer, files []File, modified time.Time) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("bundle %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("bundle %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}
