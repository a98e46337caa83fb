// Package shell tells users how to put the install directory on their PATH.
//
// skyclerk-install never edits shell configuration files. When the bin
// directory is missing from PATH, the install command prints a hint built
// from the detected shell:
//
//	# bash / zsh, added to ~/.bashrc or ~/.zshrc
//	export PATH="$HOME/.local/bin:$PATH"
//
//	# fish, added to ~/.config/fish/config.fish
//	fish_add_path $HOME/.local/bin
package shell
