package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Account is the subset of Account fields read back during sync.
type Account struct {
	ID      string `json:"Id" salesforce:"Id"`
	Name    string `json:"Name" salesforce:"Name"`
	Website string `json:"Website" salesforce:"Website"`
}

// FindAccountByWebsite returns the first Account whose Website contains
// domain, or nil.
func FindAccountByWebsite(ctx context.Context, c Client, domain string) (*Account, error) {
	if domain == "" {
		return nil, eris.New("sf: website is required")
	}
	soql := fmt.Sprintf(
		"SELECT Id, Name, Website FROM Account WHERE Website LIKE '%%%s%%' LIMIT 1",
		escapeSoql(domain),
	)
	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find account by website %s", domain))
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// UpsertAccount updates the Account matching website, or creates one.
// fields must include Name. It returns the Account id and whether it was created.
func UpsertAccount(ctx context.Context, c Client, website string, fields map[string]any) (string, bool, error) {
	if name, _ := fields["Name"].(string); name == "" {
		return "", false, eris.New("sf: account Name is required")
	}
	existing, err := FindAccountByWebsite(ctx, c, website)
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		if err := c.UpdateOne(ctx, "Account", existing.ID, fields); err != nil {
			return "", false, eris.Wrap(err, fmt.Sprintf("sf: update account %s", existing.ID))
		}
		return existing.ID, false, nil
	}

	rec := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		rec[k] = v
	}
	rec["Website"] = website
	id, err := c.InsertOne(ctx, "Account", rec)
	if err != nil {
		return "", false, eris.Wrap(err, "sf: create account")
	}
	return id, true, nil
}

// InsertContacts creates Contacts under accountID in batches of 200.
// Records that Salesforce rejects are reported in the returned error.
func InsertContacts(ctx context.Context, c Client, accountID string, contacts []map[string]any) ([]CollectionResult, error) {
	if accountID == "" {
		return nil, eris.New("sf: account id is required for contact")
	}
	if len(contacts) == 0 {
		return nil, nil
	}

	var all []CollectionResult
	var failed []string
	for start := 0; start < len(contacts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(contacts))
		batch := make([]map[string]any, 0, end-start)
		for _, ct := range contacts[start:end] {
			rec := make(map[string]any, len(ct)+1)
			for k, v := range ct {
				rec[k] = v
			}
			rec["AccountId"] = accountID
			batch = append(batch, rec)
		}

		results, err := c.InsertCollection(ctx, "Contact", batch)
		if err != nil {
			return all, eris.Wrap(err, fmt.Sprintf("sf: insert contacts batch %d-%d", start, end))
		}
		for i, r := range results {
			if !r.Success {
				failed = append(failed, fmt.Sprintf("#%d: %s", start+i, strings.Join(r.Errors, "; ")))
			}
		}
		all = append(all, results...)
	}
	if len(failed) > 0 {
		return all, eris.Errorf("sf: %d contacts rejected: %s", len(failed), strings.Join(failed, ", "))
	}
	return all, nil
}

// SplitName splits a full name into first and last name. Salesforce requires
// LastName, so a single word becomes the last name.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return "", fields[0]
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
