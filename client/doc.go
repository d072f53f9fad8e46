// Package client sends one HTTP request per call and captures everything
// about the exchange in a [Result].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options, or use
// [Default]:
//
//	c, err := client.Build(
//		client.WithTimeouts(5*time.Second, 30*time.Second),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithLogger(logger),
//	)
//
// # Making Requests
//
// Four request shapes exist. [Client.Get] folds arguments into the query
// string, [Client.Post] sends them as a url-encoded form, [Client.Raw]
// (with [Client.JSON] and [Client.XML]) posts a caller-supplied body and
// [Client.Multipart] uploads text parts followed by files:
//
//	res := c.Multipart(uploadURL,
//		client.WithArg("album", 7),
//		client.WithFile(client.NewFileParam("photo", "/tmp/cat.jpg")),
//	).Do(ctx)
//	if !res.OK() {
//		log.Println(res.ErrorMessage())
//	}
//
// Do never returns an error. Failures are captured in the Result, whose
// [Result.Category] is one of the package sentinel errors and whose code
// is 0 when no response arrived.
//
// # Downloading Files
//
// Stream a response body to disk, creating missing directories, with
// optional checksum verification and progress reporting:
//
//	res := c.Get(fileURL).Download(ctx, "/tmp/a/b/file.bin", sink,
//		download.WithChecksum(sha256.New(), expectedHex),
//	)
//
// Progress events are posted to a [dispatch.Dispatcher], never called on
// the goroutine doing the I/O. Calling Do from a task running on a
// dispatch loop is rejected with [ErrForegroundBlocking].
package client
