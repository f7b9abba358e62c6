package interfaces

import "encoding/json"

// OutcomeStatus discriminates the three terminal states of a provisioning
// run.
type OutcomeStatus string

const (
	// StatusSuccess means the link exists and navigation is registered.
	StatusSuccess OutcomeStatus = "success"

	// StatusPartial means the link exists but navigation registration
	// failed; the caller must finish registration manually.
	StatusPartial OutcomeStatus = "partial"

	// StatusFailed means no link was created.
	StatusFailed OutcomeStatus = "failed"
)

// ProvisioningOutcome is the terminal result of one provisioning run. Build
// it with SuccessOutcome, PartialSuccessOutcome or FailureOutcome and treat
// it as read-only afterwards.
type ProvisioningOutcome struct {
	Status OutcomeStatus

	// LinkID is set for success and partial success.
	LinkID LinkID

	// SelectionAppName and TemplateAppName are the display names resolved
	// during validation, set for success and partial success.
	SelectionAppName string
	TemplateAppName  string

	// NavigationLinkMethod names the engine operation that registered (or,
	// for partial success, failed to register) the navigation object.
	NavigationLinkMethod string

	// NavigationError carries the registration failure for partial
	// success.
	NavigationError error

	// RemediationSteps lists the manual actions completing a partial
	// success, in order.
	RemediationSteps []string

	// Err is the failure cause when Status is StatusFailed.
	Err error
}

// SuccessOutcome reports a fully provisioned link.
func SuccessOutcome(link LinkID, selectionName, templateName string) ProvisioningOutcome {
	return ProvisioningOutcome{
		Status:               StatusSuccess,
		LinkID:               link,
		SelectionAppName:     selectionName,
		TemplateAppName:      templateName,
		NavigationLinkMethod: NavigationLinkMethod,
	}
}

// PartialSuccessOutcome reports a created link whose navigation registration
// failed. The remediation steps tell the caller how to finish by hand; the
// link id they need is part of the outcome.
func PartialSuccessOutcome(link LinkID, selectionName, templateName string, navErr error) ProvisioningOutcome {
	return ProvisioningOutcome{
		Status:               StatusPartial,
		LinkID:               link,
		SelectionAppName:     selectionName,
		TemplateAppName:      templateName,
		NavigationLinkMethod: NavigationLinkMethod,
		NavigationError:      navErr,
		RemediationSteps: []string{
			"Open the selection application in the platform hub",
			"Open the app navigation settings for the sheet that should host the link",
			"Add an on-demand navigation link referencing link id " + link.String(),
			"Set the navigation link display name and save the sheet",
		},
	}
}

// FailureOutcome reports a run that created nothing.
func FailureOutcome(err error) ProvisioningOutcome {
	return ProvisioningOutcome{Status: StatusFailed, Err: err}
}

// Succeeded reports whether a link was created, fully registered or not.
func (o ProvisioningOutcome) Succeeded() bool {
	return o.Status == StatusSuccess || o.Status == StatusPartial
}

// provisioningOutcomeJSON is the wire shape of an outcome.
type provisioningOutcomeJSON struct {
	Status               OutcomeStatus `json:"status"`
	Success              bool          `json:"success"`
	LinkID               string        `json:"odagLinkId,omitempty"`
	SelectionAppName     string        `json:"selectionAppName,omitempty"`
	TemplateAppName      string        `json:"templateAppName,omitempty"`
	NavigationLinkMethod string        `json:"navigationLinkMethod,omitempty"`
	NavigationError      string        `json:"navigationError,omitempty"`
	RemediationSteps     []string      `json:"remediationSteps,omitempty"`
	Error                string        `json:"error,omitempty"`
}

// MarshalJSON renders the outcome for the HTTP surface. Errors are flattened
// to their messages; Success reflects link creation, so partial success
// still reports true.
func (o ProvisioningOutcome) MarshalJSON() ([]byte, error) {
	out := provisioningOutcomeJSON{
		Status:               o.Status,
		Success:              o.Succeeded(),
		LinkID:               o.LinkID.String(),
		SelectionAppName:     o.SelectionAppName,
		TemplateAppName:      o.TemplateAppName,
		NavigationLinkMethod: o.NavigationLinkMethod,
		RemediationSteps:     o.RemediationSteps,
	}
	if o.NavigationError != nil {
		out.NavigationError = o.NavigationError.Error()
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}
