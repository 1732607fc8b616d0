/*
Package content inspects and normalizes file payloads and names.

Features:
  - MIME sniffing via mimetype, independent of the file extension
  - Charset detection via chardet and conversion to UTF-8 via
    golang.org/x/net/html/charset, so the editor always receives UTF-8
  - Plain-text previews of HTML files via goquery
  - Name handling: extension splitting for display and markup stripping
    for user-entered names via bluemonday

Example Usage:

	info := content.Inspect("notes.txt", file.Content)
	text := content.Text(file.Content)
	base, ext := content.SplitName("report.final.pdf") // "report.final", ".pdf"
*/
package content
