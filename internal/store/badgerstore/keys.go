package badgerstore

import "encoding/hex"

// Key layout:
//
//	book:<id>                               -> Book
//	loan:<id>                               -> Loan
//	idx:loan:book:<hex(bookID)>:<loanID>    -> empty
//	idx:loan:user:<hex(userID)>:<loanID>    -> empty
//	idx:loan:open:<hex(bookID)>             -> loanID
//
// Index components that come from callers are hex encoded so that a ':' inside
// an ID cannot widen a prefix scan.
const (
	bookPrefix       = "book:"
	loanPrefix       = "loan:"
	loanByBookPrefix = "idx:loan:book:"
	loanByUserPrefix = "idx:loan:user:"
	openLoanPrefix   = "idx:loan:open:"
)

func bookKey(id string) []byte {
	return []byte(bookPrefix + id)
}

func loanKey(id string) []byte {
	return []byte(loanPrefix + id)
}

func loansByBookPrefix(bookID string) []byte {
	return []byte(loanByBookPrefix + hex.EncodeToString([]byte(bookID)) + ":")
}

func loanByBookKey(bookID, loanID string) []byte {
	return append(loansByBookPrefix(bookID), loanID...)
}

func loansByUserPrefix(userID string) []byte {
	return []byte(loanByUserPrefix + hex.EncodeToString([]byte(userID)) + ":")
}

func loanByUserKey(userID, loanID string) []byte {
	return append(loansByUserPrefix(userID), loanID...)
}

func openLoanKey(bookID string) []byte {
	return []byte(openLoanPrefix + hex.EncodeToString([]byte(bookID)))
}
