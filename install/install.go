// Package install defines the pluggable installer capability the download
// worker hands a verified bundle to.
//
// The installer is an external collaborator: it receives a Handle once the
// bundle is downloaded and its checksum verified, and is expected to return
// from Install immediately, running the actual installation on its own
// goroutine/thread and reporting back through the handle's callbacks.
package install

// Handle is passed to Installer.Install once a bundle has been downloaded
// and verified. BundlePath is the local file path to install from.
// Progress reports intermediate status; Complete reports the terminal
// outcome exactly once. Both are safe to call from any goroutine.
type Handle struct {
	BundlePath string
	Progress   func(message string)
	Complete   func(success bool)
}

// Installer performs the device-specific bundle installation.
//
//	type myInstaller struct{}
//	func (myInstaller) Install(h install.Handle) {
//	    go func() {
//	        h.Progress("installing")
//	        err := runRAUC(h.BundlePath)
//	        h.Complete(err == nil)
//	    }()
//	}
type Installer interface {
	Install(handle Handle)
}
