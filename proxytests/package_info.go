// Package proxytests contains the grading suite for HTTP/1.0 forward proxies: the basic suite,
// which compares pages fetched through the proxy with the same pages fetched directly, and the
// extended suite, which checks the proxy's responses to malformed and unsupported requests.
//
// Every scored case runs under the watchdog, and after every case the proxy process is probed;
// if it has died, the case fails and a replacement proxy is started on the next port.
package proxytests
