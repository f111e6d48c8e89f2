// Package script runs YAML scenarios against a browser session.
//
// A scenario is an ordered list of steps. Each step names an action and the
// fields that action needs; selectors use driver.ParseBy notation
// ("css=...", "xpath=...", "id=...", or a bare CSS selector).
//
//	name: login
//	start_url: https://example.com/login
//	timeout: 30s
//	steps:
//	  - action: fill
//	    selector: id=user
//	    text: alice
//	  - action: fill
//	    selector: id=password
//	    text: secret
//	    stepwise: true
//	  - action: click
//	    selector: button
//	    text: Sign in
//	  - action: expect_url
//	    pattern: https://example.com/account/**
//	  - action: text
//	    selector: css=.balance
//	    save: balance
//
// Values saved by one step can be referenced as ${name} in the url, text and
// value, pattern and expect fields of later steps.
package script
