// Package remote resolves feature flows from a control plane polled in the
// background. A single worker fetches the full feature set on a fixed delay
// and swaps it in as an immutable generation; readers load the current
// generation without locks and never perform I/O.
package remote
