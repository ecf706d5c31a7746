/*
Package main implements wbs, a step-driven build runner configured by YAML build files.

A build is an ordered list of steps. Each step names a tool from the engine's
registry and passes it positional arguments; a step may also be a nested list
of steps, executed in place. Tools are created once per run from their
registry entries, so construction arguments (a command prefix, a delimiter,
an executable) are fixed while the step arguments vary.

# Variables

Step arguments may reference build variables as &NAME&. Substitution repeats
until no marker is left, so values can refer to further variables. Variables
come from three layers, later ones winning:
  - build_vars of the build file
  - global_build_vars, also handed down to nested build scripts
  - the process environment, when use_env or --env is set

# Tools

Every engine starts with copy, delete and rename. Build files register more
under build_tools or global_build_tools by kind:
  - cmd: run a command line through the shell
  - copy: copy files matching a glob, optionally recursing into subdirectories
  - delete: remove a file or directory tree
  - rename: rename files by regex, optionally recursing
  - template: copy a text file substituting tokens with a chosen delimiter
  - findreplace: regex replace on every line of a text file
  - git: clone a repository and check out a branch, tag or commit
  - svn: accepted for older build files, does nothing
  - script: run a nested build file, or an expression script via expr

# Build Files

The default build file is wbs.yaml:

	include: [common.yaml]
	workdir: "&ROOT&"
	build_tools:
	  make: [cmd, make]
	  tpl: template
	build_vars:
	  ROOT: /src/project
	  DIST: dist
	steps:
	  - [delete, "&DIST&"]
	  - [copy, "src/*", "&DIST&", true]
	  - - [tpl, version.tpl, "&DIST&/version.txt"]
	    - [make, all]
	targets:
	  clean:
	    - [delete, "&DIST&"]

Included files are applied first, so the including file overrides them.
A named target replaces the top-level steps for that run.

# Usage Examples

Run the steps of wbs.yaml:

	wbs build

Run targets of another file from a fixed directory:

	wbs build -f release.yaml -t clean,dist -C /src/project

Check a build file without running anything:

	wbs validate -f release.yaml

Show the registered tools and variables:

	wbs list --format json

Set WBS_DEBUG to any value for debug logging.

# Dependencies

  - github.com/agilira/orpheus: CLI commands, flags and error kinds
  - github.com/agilira/go-errors: coded errors
  - gopkg.in/yaml.v3: build file parsing
  - github.com/expr-lang/expr: expression scripts
  - golang.org/x/text: text encodings for template and findreplace
*/
package main
