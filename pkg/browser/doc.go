// Package browser launches Chrome and wraps it in a Session: a registered,
// killable process plus element lookup, form filling, clicking, cookie and
// in-page HTTP helpers built on the wait package.
//
// # Lifecycle
//
// Launch (or NewSession for an existing driver) registers the session in a
// registry.Registry, DefaultRegistry unless WithRegistry is given. Close
// removes it and kills the Chrome process tree; DisposeAll does the same
// for every live session at once and is meant for shutdown paths.
//
// # Waits
//
// Session embeds *wait.Waiter, so every wait is available directly:
//
//	s, err := browser.Launch(browser.LaunchOptions{Hidden: true})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.Navigate("https://example.com/login"); err != nil {
//	    return err
//	}
//	s.FillText(driver.Name("user"), "alice", browser.Stepwise())
//	s.WaitToClick(driver.CSS("button[type=submit]"))
//	if !s.URLChanged(s.Timeout()) {
//	    return errors.New("login did not navigate")
//	}
//
// Helpers never return driver errors for lookups; a missing element is
// reported as nil or false.
package browser
