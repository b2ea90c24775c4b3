package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/ballastd/ballast/config"
)

var configureArgs struct {
	Folder   string
	Capacity int64
	Override bool
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a configuration file for this instance",
	Run:   configureCmdRun,
}

func init() {
	configureCmd.PersistentFlags().StringVarP(&configureArgs.Folder, "folder", "f", "", "the absolute path of the folder to manage")
	configureCmd.PersistentFlags().Int64VarP(&configureArgs.Capacity, "capacity", "c", 0, "the number of bytes to reserve for the folder")
	configureCmd.PersistentFlags().BoolVar(&configureArgs.Override, "override", false, "override an existing configuration file")
}

func configureCmdRun(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(configPath); err == nil && !configureArgs.Override {
		survey.AskOne(&survey.Confirm{Message: "Override existing configuration file"}, &configureArgs.Override)
		if !configureArgs.Override {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
	}

	if configureArgs.Folder == "" {
		err := survey.AskOne(&survey.Input{Message: "Managed folder: "}, &configureArgs.Folder, survey.WithValidator(validateFolder))
		if err == terminal.InterruptErr {
			return
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
	} else if err := validateFolder(configureArgs.Folder); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	if configureArgs.Capacity <= 0 {
		var answer string
		err := survey.AskOne(&survey.Input{Message: "Reserved capacity (bytes): "}, &answer, survey.WithValidator(validateCapacity))
		if err == terminal.InterruptErr {
			return
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		configureArgs.Capacity, _ = strconv.ParseInt(answer, 10, 64)
	}

	c, err := config.NewAtPath(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build configuration: %s\n", err)
		os.Exit(1)
	}
	c.Reservation.Folder = configureArgs.Folder
	c.Reservation.Capacity = configureArgs.Capacity

	if err := config.WriteToDisk(c); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write configuration: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully configured ballast at %s\n", configPath)
}

func validateFolder(ans interface{}) error {
	str, ok := ans.(string)
	if !ok {
		return nil
	}
	if !filepath.IsAbs(str) {
		return fmt.Errorf("the managed folder must be an absolute path")
	}
	st, err := os.Stat(str)
	if err != nil {
		return fmt.Errorf("the managed folder must already exist: %s", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("the managed folder must be a directory")
	}
	return nil
}

func validateCapacity(ans interface{}) error {
	str, ok := ans.(string)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("the capacity needs to be a positive number of bytes")
	}
	return nil
}
