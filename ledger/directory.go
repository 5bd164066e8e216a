package ledger

// =============================================================================
// ACCOUNT DIRECTORY - In-memory lookup for entry enrichment
// =============================================================================

// AccountDirectory resolves ledger entries to their account metadata.
// Two explicit maps back the two lookup steps: by account id first, then
// by denormalized account code for entries whose account id no longer
// resolves (renumbered charts, imported history).
type AccountDirectory struct {
	byID   map[string]Account
	byCode map[string]Account
}

// NewAccountDirectory indexes the given accounts. Later duplicates win,
// matching "latest read from the directory" semantics.
func NewAccountDirectory(accounts []Account) *AccountDirectory {
	dir := &AccountDirectory{
		byID:   make(map[string]Account, len(accounts)),
		byCode: make(map[string]Account, len(accounts)),
	}
	for _, a := range accounts {
		if a.ID != "" {
			dir.byID[a.ID] = a
		}
		if a.Code != "" {
			dir.byCode[a.Code] = a
		}
	}
	return dir
}

// Resolve looks up an account by id, falling back to code. The second
// return is false when neither resolves; callers treat that as
// non-fatal and enrich with an empty account type.
func (d *AccountDirectory) Resolve(id, code string) (Account, bool) {
	if a, ok := d.byID[id]; ok {
		return a, true
	}
	if a, ok := d.byCode[code]; ok {
		return a, true
	}
	return Account{}, false
}
