// =============================================================================
// WeChat Order Ledger - Ledger File Store
// =============================================================================
//
// The ledger is a set of month-partitioned, append-only CSV files held in a
// remote version-controlled store. This file defines the narrow interface
// the pipeline depends on, the sentinel errors callers branch on, and the
// append semantics. The GitHub implementation lives in github.go; tests use
// in-memory fakes.
//
// ERROR CONTRACT:
//   A failed fetch must never be conflated with "the file does not exist
//   yet". Get returns ErrNotFound only when the store positively reported
//   the file absent; transport and auth failures come back as ordinary
//   errors. A Commit against a stale revision returns ErrRevisionConflict,
//   which the caller surfaces as retryable; the revision token is the only
//   serialization point for concurrent submissions.
//
// =============================================================================

package ledger

import (
	"context"
	"errors"
	"strings"

	"orderledger/internal/types"
)

// Sentinel errors for the store contract.
var (
	// ErrNotFound reports that the requested ledger file does not exist.
	ErrNotFound = errors.New("ledger: file not found")

	// ErrRevisionConflict reports a commit against a stale revision token.
	// The caller should re-fetch and retry; the conflict is never swallowed.
	ErrRevisionConflict = errors.New("ledger: revision conflict")
)

// FileStore is the remote versioned file store the ledger lives in.
type FileStore interface {
	// Get returns the file content and its revision token. It returns
	// ErrNotFound when the file does not exist.
	Get(ctx context.Context, path string) (content, revision string, err error)

	// Commit writes content to path. An empty revision creates the file;
	// a non-empty revision updates it only if the revision still matches,
	// returning ErrRevisionConflict otherwise.
	Commit(ctx context.Context, path, content, revision string) (types.CommitInfo, error)
}

// Header is the ledger column header written when a month file is created.
const Header = "客户姓名,客户电话,客户地址,商品类型(国标/母婴),成交金额,面积,履约时间,CMA点位数量,备注赠品"

// Append produces the new full file content for appending rows to an
// existing ledger file. On first creation (empty existing content) the
// header row is prepended. Both parts are kept newline-terminated so rows
// never run together.
func Append(existing, rows string) string {
	if rows != "" && !strings.HasSuffix(rows, "\n") {
		rows += "\n"
	}

	if existing == "" {
		return Header + "\n" + rows
	}
	if !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	return existing + rows
}
