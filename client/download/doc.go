// Package download is the file destination for response bodies that are
// saved to disk instead of buffered in memory.
//
// [Open] creates any missing parent directories and truncates the target:
//
//	t, err := download.Open("/tmp/out/file.bin",
//		download.WithChecksum(sha256.New(), expectedHex),
//	)
//	if err != nil { ... }
//	_, err = io.Copy(t, body)
//	err = errors.Join(err, t.Close(), t.Verify())
//
// Data is written in place. A failed copy leaves whatever was already
// written on disk.
//
// Most callers should use the higher-level
// [github.com/entao/apphttp/client] package, which saves responses through
// this package when a request has a save target.
package download
