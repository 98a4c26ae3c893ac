// Package ddiurl builds hawkBit Direct Device Integration endpoint URLs.
//
// Design constraints:
//   - Pure computation, no IO (logic layer).
//   - Does not validate reachability; callers pass the result to adaptor/ddiclient.
package ddiurl

import "strings"

// Base composes the controller's root DDI endpoint:
// {scheme}://{host}/{tenant}/controller/v1/{controllerId}, scheme https iff ssl.
//
//	ddiurl.Base("hawkbit.example.com", "DEFAULT", "device-1", true)
//	// "https://hawkbit.example.com/DEFAULT/controller/v1/device-1"
func Base(host, tenant, controllerID string, ssl bool) string {
	scheme := "http"
	if ssl {
		scheme = "https"
	}
	return scheme + "://" + host + "/" + tenant + "/controller/v1/" + controllerID
}

// Join appends a suffix path to a base URL built by Base, handling the
// leading-slash bookkeeping so callers can pass either form.
//
//	ddiurl.Join(base, "configData")
//	ddiurl.Join(base, "42/feedback")
func Join(base, suffix string) string {
	if suffix == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(suffix, "/")
}

// Feedback composes the per-action feedback endpoint:
// {base}/deploymentBase/{actionID}/feedback.
//
//	ddiurl.Feedback(base, "42")
//	// "{base}/deploymentBase/42/feedback"
func Feedback(base, actionID string) string {
	return Join(base, "deploymentBase/"+actionID+"/feedback")
}

// ConfigData composes the identify endpoint: {base}/configData.
func ConfigData(base string) string {
	return Join(base, "configData")
}
