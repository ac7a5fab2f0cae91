// Package highlights turns a transcript into an editable highlight script and
// turns the edited script back into a cut list for a highlight reel.
//
// The workflow is markdown round-tripping: export writes every transcript
// segment as a "[MM:SS-MM:SS] text" line, the author deletes the lines they
// do not want and optionally prefixes a line with "{Title}", and parsing
// reads the surviving lines back as timed segments. Annotated documents,
// where an author marked "==text==" or "<u>text</u>" under "**[MM:SS]**"
// timestamps, can be converted into the same script form.
package highlights
