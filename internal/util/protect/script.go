package protect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// ContentType is the media type of Script's output.
const ContentType = "text/javascript; charset=utf-8"

//nolint:gochecknoglobals
var scriptTemplate = template.Must(template.New("protect.js").Parse(`// Deterrent against casual copying. Not a security boundary.
(function () {
  "use strict";
  var shortcuts = {{.Shortcuts}};
  var optOut = {{.OptOut}};
  function editable(el) {
    if (!el || !el.tagName) return false;
    var tag = el.tagName.toLowerCase();
    if (tag === "textarea" || tag === "select") return true;
    if (tag === "input") {
      return ["button", "checkbox", "radio", "submit", "reset", "image", "file", "hidden", "range", "color"].indexOf((el.type || "").toLowerCase()) < 0;
    }
    return !!el.isContentEditable;
  }
  function blocked(e) {
    var ctrl = e.ctrlKey || e.metaKey;
    for (var i = 0; i < shortcuts.length; i++) {
      var s = shortcuts[i];
      if (e.key && e.key.toLowerCase() === s.key.toLowerCase() && ctrl === s.ctrl && e.shiftKey === s.shift && e.altKey === s.alt) return true;
    }
    return false;
  }
  function cancel(e) {
    e.preventDefault();
    e.stopPropagation();
  }
  var listeners = {
    keydown: function (e) { if (!editable(e.target) && blocked(e)) cancel(e); },
    copy: function (e) { if (!editable(e.target)) cancel(e); },
    selectstart: function (e) { if (!editable(e.target)) cancel(e); },
    contextmenu: function (e) { if (!(e.target && e.target.closest && e.target.closest("[" + optOut + "]"))) cancel(e); }
  };
  var installed = [];
  try {
    Object.keys(listeners).forEach(function (type) {
      document.addEventListener(type, listeners[type], true);
      installed.push(type);
    });
  } catch (err) {
    installed.forEach(function (type) { document.removeEventListener(type, listeners[type], true); });
    installed = [];
  }
  window.teacherlinkUnprotect = function () {
    installed.forEach(function (type) { document.removeEventListener(type, listeners[type], true); });
    installed = [];
  };
})();
`))

type scriptShortcut struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
}

// Script renders the browser side of the deterrent from the same shortcut
// table Install uses.
func Script(opts ...Option) ([]byte, error) {
	o := newOptions(opts)

	shortcuts := make([]scriptShortcut, 0, len(o.shortcuts))
	for _, s := range o.shortcuts {
		shortcuts = append(shortcuts, scriptShortcut{Key: s.Key, Ctrl: s.Ctrl, Shift: s.Shift, Alt: s.Alt})
	}

	shortcutsJSON, err := json.Marshal(shortcuts)
	if err != nil {
		return nil, fmt.Errorf("marshal shortcuts: %w", err)
	}

	optOutJSON, err := json.Marshal(o.optOut)
	if err != nil {
		return nil, fmt.Errorf("marshal opt-out attribute: %w", err)
	}

	var buf bytes.Buffer

	err = scriptTemplate.Execute(&buf, struct {
		Shortcuts string
		OptOut    string
	}{
		Shortcuts: string(shortcutsJSON),
		OptOut:    string(optOutJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("render script: %w", err)
	}

	return buf.Bytes(), nil
}
