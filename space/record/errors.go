package record

import "errors"

// ErrDiagnosticsDisabled is returned by PrintRecords in builds tagged
// spacekit_nodiag.
var ErrDiagnosticsDisabled = errors.New("record: print_records needs a build without the spacekit_nodiag tag")
