package cmake

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// BuildInfoFile is the integration file written into every build folder.
const BuildInfoFile = "kilnbuildinfo.cmake"

// RenderBuildInfo produces a CMake script exposing the include, library and
// binary directories of deps. It is loaded through CMAKE_PROJECT_INCLUDE, so
// consumers get the paths without editing their CMakeLists.txt.
func RenderBuildInfo(deps []domain.InstalledPackage) string {
	var b strings.Builder
	b.WriteString("# Generated by kiln. Do not edit.\n\n")

	var names, roots, includes, libDirs, binDirs, libs, defines []string
	for _, dep := range deps {
		info := dep.Info.CppInfo.WithDefaults()
		name := strings.ToUpper(dep.Info.Reference.Name)
		root := filepath.ToSlash(dep.Root)

		depIncludes := joinDirs(root, info.IncludeDirs)
		depLibDirs := joinDirs(root, info.LibDirs)
		depBinDirs := joinDirs(root, info.BinDirs)

		writeSet(&b, "KILN_ROOT_"+name, []string{root})
		writeSet(&b, "KILN_INCLUDE_DIRS_"+name, depIncludes)
		writeSet(&b, "KILN_LIB_DIRS_"+name, depLibDirs)
		writeSet(&b, "KILN_BIN_DIRS_"+name, depBinDirs)
		writeSet(&b, "KILN_LIBS_"+name, info.Libs)
		writeSet(&b, "KILN_DEFINES_"+name, info.Defines)
		b.WriteByte('\n')

		names = append(names, dep.Info.Reference.Name)
		roots = append(roots, root)
		includes = append(includes, depIncludes...)
		libDirs = append(libDirs, depLibDirs...)
		binDirs = append(binDirs, depBinDirs...)
		libs = append(libs, info.Libs...)
		defines = append(defines, info.Defines...)
	}

	writeSet(&b, "KILN_DEPENDENCIES", names)
	writeSet(&b, "KILN_INCLUDE_DIRS", includes)
	writeSet(&b, "KILN_LIB_DIRS", libDirs)
	writeSet(&b, "KILN_BIN_DIRS", binDirs)
	writeSet(&b, "KILN_LIBS", libs)
	writeSet(&b, "KILN_DEFINES", defines)
	b.WriteByte('\n')

	if len(roots) > 0 {
		// Find modules shipped at package roots (FindSOILCPP.cmake).
		b.WriteString("list(APPEND CMAKE_MODULE_PATH " + quoteAll(roots) + ")\n")
		b.WriteString("list(APPEND CMAKE_PREFIX_PATH " + quoteAll(roots) + ")\n\n")
	}

	b.WriteString(basicSetup)
	return b.String()
}

const basicSetup = `macro(kiln_basic_setup)
    include_directories(${KILN_INCLUDE_DIRS})
    link_directories(${KILN_LIB_DIRS})
    add_definitions(${KILN_DEFINES})
    set(CMAKE_RUNTIME_OUTPUT_DIRECTORY ${CMAKE_BINARY_DIR}/bin)
    set(CMAKE_ARCHIVE_OUTPUT_DIRECTORY ${CMAKE_BINARY_DIR}/lib)
    set(CMAKE_LIBRARY_OUTPUT_DIRECTORY ${CMAKE_BINARY_DIR}/lib)
    foreach(config ${CMAKE_CONFIGURATION_TYPES} ${CMAKE_BUILD_TYPE})
        string(TOUPPER "${config}" config)
        set(CMAKE_RUNTIME_OUTPUT_DIRECTORY_${config} ${CMAKE_BINARY_DIR}/bin)
        set(CMAKE_ARCHIVE_OUTPUT_DIRECTORY_${config} ${CMAKE_BINARY_DIR}/lib)
        set(CMAKE_LIBRARY_OUTPUT_DIRECTORY_${config} ${CMAKE_BINARY_DIR}/lib)
    endforeach()
endmacro()

if(NOT KILN_NO_BASIC_SETUP)
    kiln_basic_setup()
endif()
`

// WriteBuildInfo writes the integration file into dir and returns its path.
func WriteBuildInfo(dir string, deps []domain.InstalledPackage) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create build directory"), "path", dir)
	}
	path := filepath.Join(dir, BuildInfoFile)
	//nolint:gosec // Build folder is owned by the cache
	if err := os.WriteFile(path, []byte(RenderBuildInfo(deps)), 0o644); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to write build info"), "path", path)
	}
	return path, nil
}

func joinDirs(root string, dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, root+"/"+strings.TrimPrefix(filepath.ToSlash(d), "./"))
	}
	return out
}

func writeSet(b *strings.Builder, name string, values []string) {
	b.WriteString("set(" + name)
	if len(values) > 0 {
		b.WriteString(" " + quoteAll(values))
	}
	b.WriteString(")\n")
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return strings.Join(quoted, " ")
}
